package cmd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chatline/authflow/internal/devidentity"
	"github.com/chatline/authflow/internal/rate"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(devserverCmd)
	flags := devserverCmd.Flags()
	flags.String("addr", "localhost:8000", "listen address")
	flags.String("secret", "", "HS256 signing secret of at least 32 bytes, random when empty")
	flags.Bool("with-redis", false, "start an in-memory redis shared by the login throttle and the redis session store")
	flags.Int("max-login-attempts", 5, "failed logins per username before throttling, needs --with-redis")
	viper.BindPFlag("devserver.addr", flags.Lookup("addr"))
	viper.BindPFlag("devserver.secret", flags.Lookup("secret"))
}

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory identity service for local development",
	Long: `Run an in-memory identity service implementing the login and register
endpoints under /api/. Accounts are lost on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		withRedis, _ := cmd.Flags().GetBool("with-redis")
		maxAttempts, _ := cmd.Flags().GetInt("max-login-attempts")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDevServer(ctx, devServerOptions{
			addr:        viper.GetString("devserver.addr"),
			secret:      []byte(viper.GetString("devserver.secret")),
			withRedis:   withRedis,
			maxAttempts: maxAttempts,
		})
	},
}

type devServerOptions struct {
	addr        string
	secret      []byte
	withRedis   bool
	maxAttempts int
}

func runDevServer(ctx context.Context, opts devServerOptions) error {
	addr, secret := opts.addr, opts.secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		slog.Warn("no signing secret configured, issued tokens will not verify after restart")
	}

	cfg := devidentity.DefaultConfig(secret)
	cfg.Logger = slog.Default()

	if opts.withRedis {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		cfg.Redis = rdb
		cfg.Throttle = rate.Config{MaxAttempts: opts.maxAttempts, Cooldown: time.Minute, PerIP: true}
		slog.Info("in-memory redis started", "url", "redis://"+mr.Addr()+"/0", "max_login_attempts", opts.maxAttempts)
		fmt.Printf("export AUTHFLOW_STORE_KIND=redis AUTHFLOW_STORE_REDIS_URL=redis://%s/0\n", mr.Addr())
	}

	srv, err := devidentity.New(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("devidentity listening", "addr", addr, "base_url", "http://"+addr+cfg.Prefix+"/")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("devidentity shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
