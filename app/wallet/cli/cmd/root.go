// Package cmd contains the wallet app commands.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	accountName  string
	accountPath  string
	nodeURL      string
	outputFormat string
)

const (
	keyExtension = ".pem"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the account, also the username.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "Output format, json or yaml.")
}

var rootCmd = &cobra.Command{
	Use:          "wallet",
	Short:        "Your simple petition wallet",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// username is the account name without any key extension.
func username() string {
	return strings.TrimSuffix(accountName, keyExtension)
}

func getPrivateKeyPath() string {
	return filepath.Join(accountPath, username()+keyExtension)
}
