package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/fwgate/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "fwgate",
	Short: "fwgate is an API key login gate for a speech service",
	Long: `A login gate that sits in front of a speech-to-text HTTP service.
Browsers sign in once with the configured API_KEY and receive a session cookie;
API clients keep using Bearer tokens, which are passed straight through.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv(config.EnvConfigFile),
		"Path to a YAML config file")
}
