package cmd

import (
	"context"

	"github.com/chatline/authflow"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("username", "u", "", "username, prompted when empty")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Log in against the identity service and store the returned session.

The password is read without echo. For scripts, set AUTHFLOW_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		preset := loginForm{Username: username, Password: viper.GetString("password")}

		return withClient(cmd, func(ctx context.Context, _ *settings, client *authflow.Client) error {
			v := newView(client, cmd.OutOrStdout())
			defer v.close()
			_, err := v.login(ctx, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), preset)
			return err
		})
	},
}
