package cmd

import (
	"context"

	"github.com/chatline/authflow"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(registerCmd)
	flags := registerCmd.Flags()
	flags.StringP("username", "u", "", "username, prompted when empty")
	flags.StringP("email", "e", "", "email address, prompted when empty")
	flags.String("profile-image", "", "path to an optional profile image")
	flags.Bool("then-login", false, "continue to the login view after registering")
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		username, _ := flags.GetString("username")
		email, _ := flags.GetString("email")
		image, _ := flags.GetString("profile-image")
		thenLogin, _ := flags.GetBool("then-login")
		preset := registerForm{
			Username:     username,
			Email:        email,
			Password:     viper.GetString("password"),
			ProfileImage: image,
		}

		return withClient(cmd, func(ctx context.Context, _ *settings, client *authflow.Client) error {
			v := newView(client, cmd.OutOrStdout())
			defer v.close()
			_, err := v.register(ctx, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), preset, thenLogin)
			return err
		})
	},
}
