package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ardanlabs/petition/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var force bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new RSA key pair for the account",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing key.")
}

func generateRun(cmd *cobra.Command, args []string) error {
	path := getPrivateKeyPath()

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("key %s already exists, use --force to replace it", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	privateKey, err := signature.GenerateKey()
	if err != nil {
		return err
	}

	if err := signature.SavePrivateKey(path, privateKey); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
