package cmd

import (
	"github.com/ardanlabs/petition/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the account's public key with the node",
	RunE:  registerRun,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func registerRun(cmd *cobra.Command, args []string) error {
	privateKey, err := signature.LoadPrivateKey(getPrivateKeyPath())
	if err != nil {
		return err
	}

	pem, err := signature.PublicKeyPEM(privateKey)
	if err != nil {
		return err
	}

	nu := struct {
		Username  string `json:"username"`
		PublicKey string `json:"public_key"`
	}{
		Username:  username(),
		PublicKey: pem,
	}

	var resp any
	if err := post(cmd.Context(), "/v1/users", nu, &resp); err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), resp)
}
