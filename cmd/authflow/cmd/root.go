package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose = false
var workdir = ""

var (
	rootCmd = &cobra.Command{
		Use:           "authflow",
		Short:         "Chat client login and registration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if workdir != "" {
				if err := os.Chdir(workdir); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to change working directory: %v\n", err)
					os.Exit(1)
				}
			}
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			if os.Getenv("PRETTY_LOGS") != "false" {
				logger := slog.New(
					console.NewHandler(os.Stderr, &console.HandlerOptions{Level: logLevel}),
				)
				slog.SetDefault(logger)
			} else {
				slog.SetLogLoggerLevel(logLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
)

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix("AUTHFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.StringVarP(&workdir, "workdir", "w", "", "working directory")
	persistentFlags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	persistentFlags.StringP("config-file", "f", "authflow.yaml", "config file, relative to working directory")
	persistentFlags.String("base-url", "", "identity service base URL, overrides identity.base_url")
	persistentFlags.String("store", "file", "session store: memory, file or redis")
	persistentFlags.String("session-file", defaultSessionFile(), "session record path for the file store")
	persistentFlags.String("redis-url", "redis://localhost:6379/0", "redis URL for the redis store")

	viper.BindPFlag("config_file", persistentFlags.Lookup("config-file"))
	viper.BindPFlag("base_url", persistentFlags.Lookup("base-url"))
	viper.BindPFlag("store.kind", persistentFlags.Lookup("store"))
	viper.BindPFlag("store.path", persistentFlags.Lookup("session-file"))
	viper.BindPFlag("store.redis_url", persistentFlags.Lookup("redis-url"))
}
