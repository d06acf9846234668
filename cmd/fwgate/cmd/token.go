package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/fwgate/config"
	"github.com/jmcleod/fwgate/gate"
)

var errNoAPIKey = errors.New("no API key configured")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the session cookie value for the configured API key",
	Long: `Prints the fw_auth cookie value the gate issues for the configured API key,
for scripted access such as: curl --cookie "fw_auth=$(fwgate token)" ...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		token := gate.DeriveToken(cfg.APIKey)
		if token == "" {
			return fmt.Errorf("%w: set %s or api_key in the config file", errNoAPIKey, config.EnvAPIKey)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
