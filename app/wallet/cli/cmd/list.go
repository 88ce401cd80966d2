package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the petitions on the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(cmd, "/v1/petitions")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of signers per petition",
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(cmd, "/v1/stats")
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print every block on the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(cmd, "/v1/chain")
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the chain and every signature on the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return show(cmd, "/v1/chain/validate")
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(validateCmd)
}

// show fetches the path and renders whatever the node returns.
func show(cmd *cobra.Command, path string) error {
	var resp any
	if err := get(cmd.Context(), path, &resp); err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), resp)
}
