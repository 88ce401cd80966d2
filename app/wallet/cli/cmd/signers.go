package cmd

import (
	"net/url"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var signersCmd = &cobra.Command{
	Use:   "signers <petition-id>",
	Short: "Show a petition and its verified signers",
	Args:  cobra.ExactArgs(1),
	RunE:  signersRun,
}

var activityCmd = &cobra.Command{
	Use:   "activity [username]",
	Short: "Show the petitions a user created and signed",
	Args:  cobra.MaximumNArgs(1),
	RunE:  activityRun,
}

func init() {
	rootCmd.AddCommand(signersCmd)
	rootCmd.AddCommand(activityCmd)
}

func signersRun(cmd *cobra.Command, args []string) error {
	path := "/v1/petitions/" + url.PathEscape(args[0])

	resp := struct {
		Petition any `json:"petition"`
		Signers  any `json:"signers"`
	}{}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return get(ctx, path, &resp.Petition)
	})
	g.Go(func() error {
		return get(ctx, path+"/signers", &resp.Signers)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), resp)
}

func activityRun(cmd *cobra.Command, args []string) error {
	user := username()
	if len(args) == 1 {
		user = args[0]
	}

	return show(cmd, "/v1/users/"+url.PathEscape(user)+"/activity")
}
