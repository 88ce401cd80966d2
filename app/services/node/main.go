package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/petition/app/services/node/handlers"
	"github.com/ardanlabs/petition/foundation/blockchain/database"
	"github.com/ardanlabs/petition/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/petition/foundation/blockchain/database/storage/sqlite"
	"github.com/ardanlabs/petition/foundation/blockchain/registry"
	"github.com/ardanlabs/petition/foundation/blockchain/state"
	"github.com/ardanlabs/petition/foundation/events"
	"github.com/ardanlabs/petition/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			CorsOrigin      string        `conf:"default:*"`
		}
		State struct {
			Storage      string `conf:"default:disk,help:disk or sqlite"`
			LedgerPath   string `conf:"default:zblock/blockchain.json"`
			RegistryPath string `conf:"default:zblock/users_db.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "petition ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`  ____      _   _ _   _               _              _                 `)
	fmt.Println(` |  _ \ ___| |_(_) |_(_) ___  _ __   | |    ___  __| | __ _  ___ _ __ `)
	fmt.Println(` | |_) / _ \ __| | __| |/ _ \| '_ \  | |   / _ \/ _`+"`"+` |/ _`+"`"+` |/ _ \ '__|`)
	fmt.Println(` |  __/  __/ |_| | |_| | (_) | | | | | |__|  __/ (_| | (_| |  __/ |   `)
	fmt.Println(` |_|   \___|\__|_|\__|_|\___/|_| |_| |_____\___|\__,_|\__, |\___|_|   `)
	fmt.Println(`                                                      |___/           `)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	// The ledger packages accept a function of this signature to allow the
	// application to log. Messages about appended blocks are also sent to any
	// websocket client that is connected into the system through the events
	// package.
	evts := events.New()
	ev := func(v string, args ...any) {
		const websocketPrefix = "state:"

		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		if strings.HasPrefix(s, websocketPrefix) {
			evts.Send(s)
		}
	}

	// The storage is opened before the state so the chosen backend can be
	// logged and closed by the state on shutdown.
	var strg database.Storage
	switch cfg.State.Storage {
	case "disk":
		strg, err = disk.New(cfg.State.LedgerPath)
	case "sqlite":
		strg, err = sqlite.New(cfg.State.LedgerPath)
	default:
		err = fmt.Errorf("unknown storage %q", cfg.State.Storage)
	}
	if err != nil {
		return fmt.Errorf("opening ledger storage: %w", err)
	}
	log.Infow("startup", "status", "ledger storage", "storage", cfg.State.Storage, "path", cfg.State.LedgerPath)

	// The registry maps usernames to the public keys signatures are
	// verified against.
	reg := registry.New(cfg.State.RegistryPath, ev)
	for _, username := range reg.Usernames() {
		log.Infow("startup", "status", "registry", "username", username)
	}

	// The state value represents the ledger and provides an API for
	// application support.
	state, err := state.New(state.Config{
		Storage:   strg,
		Registry:  reg,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer state.Shutdown()

	// Report the state of the ledger found on startup. A chain that fails
	// validation is served anyway so it can be inspected.
	vr := state.ValidateAll()
	log.Infow("startup", "status", "ledger validated", "ok", vr.OK(), "chain", vr.Chain.Detail, "signatures", vr.Signatures.Detail)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, state)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		State:      state,
		Evts:       evts,
		CorsOrigin: cfg.Web.CorsOrigin,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
