package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chatline/authflow"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// buildClient opens the configured store and builds a client over it. The
// returned func closes both.
func buildClient(ctx context.Context, s *settings, logger *slog.Logger) (*authflow.Client, func(), error) {
	store, closeStore, err := openStore(ctx, s.Store)
	if err != nil {
		return nil, nil, err
	}

	b := authflow.New().
		WithConfig(s.Client).
		WithSessionStore(store).
		WithLogger(logger)
	if s.Client.Audit.Enabled {
		b = b.WithAuditSink(authflow.NewJSONWriterSink(os.Stderr))
	}

	client, err := b.Build()
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("build client: %w", err)
	}
	return client, func() {
		client.Close()
		closeStore()
	}, nil
}

// withClient runs fn with a client built from the global viper settings.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, s *settings, client *authflow.Client) error) error {
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	slog.Debug("loaded settings", "config_file", s.ConfigFile, "store", s.Store.Kind, "base_url", s.Client.Identity.BaseURL)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, release, err := buildClient(ctx, s, slog.Default())
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, s, client)
}
