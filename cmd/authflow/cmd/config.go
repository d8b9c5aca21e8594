package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(viper.GetViper())
		if err != nil {
			return err
		}
		if s.ConfigFile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "# Config file: none, using defaults")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n", s.ConfigFile)
		}

		for _, w := range s.Client.Lint() {
			slog.Warn("config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(s)
	},
}
