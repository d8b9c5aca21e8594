package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chatline/authflow"
	"github.com/chatline/authflow/session"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, _ *settings, client *authflow.Client) error {
			return printStatus(ctx, cmd.OutOrStdout(), client, time.Now())
		})
	},
}

func printStatus(ctx context.Context, out io.Writer, client *authflow.Client, now time.Time) error {
	info, err := client.CurrentSession(ctx)
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	fmt.Fprintf(out, "Logged in as %s\n", info.Username)
	if !info.SavedAt.IsZero() {
		fmt.Fprintf(out, "Saved at:        %s\n", info.SavedAt.Format(time.RFC3339))
	}
	if !info.AccessExpiresAt.IsZero() {
		state := "valid"
		if info.AccessExpired(now) {
			state = "expired"
		}
		fmt.Fprintf(out, "Access token:    %s until %s\n", state, info.AccessExpiresAt.Format(time.RFC3339))
	}
	if !info.RefreshExpiresAt.IsZero() {
		fmt.Fprintf(out, "Refresh token:   expires %s\n", info.RefreshExpiresAt.Format(time.RFC3339))
	}
	return nil
}
