// This program performs administrative tasks against the ledger files of
// a stopped node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/petition/app/tooling/admin/commands"
	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/petition/foundation/blockchain/database/storage/sqlite"
	"github.com/ardanlabs/petition/foundation/blockchain/registry"
	"github.com/ardanlabs/petition/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

type config struct {
	conf.Version
	Args  conf.Args
	State struct {
		Storage      string `conf:"default:disk,help:disk or sqlite"`
		LedgerPath   string `conf:"default:zblock/blockchain.json"`
		RegistryPath string `conf:"default:zblock/users_db.json"`
	}
	Migrate struct {
		SQLitePath string `conf:"default:zblock/blockchain.db"`
	}
	Output string `conf:"default:json,help:json or yaml"`
}

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("admin", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := config{
		Version: conf.Version{
			Build: build,
			Desc:  "petition ledger admin",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	return processCommands(cfg.Args, log, cfg)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, log *zap.SugaredLogger, cfg config) error {
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	switch args.Num(0) {
	case "validate", "chain", "stats":
		strg, err := openStorage(cfg.State.Storage, cfg.State.LedgerPath)
		if err != nil {
			return err
		}
		defer strg.Close()

		switch args.Num(0) {
		case "validate":
			reg := registry.New(cfg.State.RegistryPath, ev)
			if err := commands.Validate(os.Stdout, cfg.Output, strg, reg); err != nil {
				return fmt.Errorf("validating ledger: %w", err)
			}
		case "chain":
			if err := commands.Chain(os.Stdout, cfg.Output, strg); err != nil {
				return fmt.Errorf("printing chain: %w", err)
			}
		case "stats":
			if err := commands.Stats(os.Stdout, cfg.Output, strg); err != nil {
				return fmt.Errorf("printing stats: %w", err)
			}
		}

	case "migrate":
		src, err := disk.New(cfg.State.LedgerPath)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := sqlite.New(cfg.Migrate.SQLitePath)
		if err != nil {
			return err
		}
		defer dst.Close()

		n, err := commands.Migrate(src, dst)
		if err != nil {
			return fmt.Errorf("migrating ledger: %w", err)
		}
		log.Infow("migrate", "status", "complete", "blocks", n, "from", cfg.State.LedgerPath, "to", cfg.Migrate.SQLitePath)

	default:
		fmt.Println("validate: check the hash linkage and every signature")
		fmt.Println("chain:    print every block")
		fmt.Println("stats:    print the number of signers per petition")
		fmt.Println("migrate:  copy the disk ledger into a sqlite ledger")
		fmt.Println("provide a command to get more help.")
		return commands.ErrHelp
	}

	return nil
}

func openStorage(kind string, path string) (database.Storage, error) {
	switch kind {
	case "disk":
		return disk.New(path)
	case "sqlite":
		return sqlite.New(path)
	}

	return nil, fmt.Errorf("unknown storage %q", kind)
}
