package cmd

import (
	"net/url"

	"github.com/ardanlabs/petition/foundation/blockchain/petition"
	"github.com/ardanlabs/petition/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign <petition-id>",
	Short: "Sign a petition with the account's private key",
	Args:  cobra.ExactArgs(1),
	RunE:  signRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func signRun(cmd *cobra.Command, args []string) error {
	privateKey, err := signature.LoadPrivateKey(getPrivateKeyPath())
	if err != nil {
		return err
	}

	path := "/v1/petitions/" + url.PathEscape(args[0])

	// The node verifies against the first definition of the petition, which
	// differs from the displayed text when the id was defined twice.
	var p petition.Petition
	if err := get(cmd.Context(), path, &p); err != nil {
		return err
	}

	sig, err := signature.Sign(signature.Message(p.SigningText, username()), privateKey)
	if err != nil {
		return err
	}

	ns := struct {
		Username  string `json:"username"`
		Signature string `json:"signature"`
	}{
		Username:  username(),
		Signature: sig,
	}

	var resp any
	if err := post(cmd.Context(), path+"/signatures", ns, &resp); err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), resp)
}
