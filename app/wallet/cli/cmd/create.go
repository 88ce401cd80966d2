package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var petitionText string

var createCmd = &cobra.Command{
	Use:   "create <petition-id>",
	Short: "Create a petition owned by the account",
	Args:  cobra.ExactArgs(1),
	RunE:  createRun,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&petitionText, "text", "t", "", "Text of the petition.")
}

func createRun(cmd *cobra.Command, args []string) error {
	if petitionText == "" {
		return errors.New("petition text is required, use --text")
	}

	np := struct {
		PetitionID string `json:"petition_id"`
		Text       string `json:"text"`
		Creator    string `json:"creator"`
	}{
		PetitionID: args[0],
		Text:       petitionText,
		Creator:    username(),
	}

	var resp any
	if err := post(cmd.Context(), "/v1/petitions", np, &resp); err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), resp)
}
