package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/layer-3/walletvault/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "walletvault",
	Short:   "Per-wallet file storage with Ethereum signature authentication",
	Long: `walletvault stores files in a private partition per Ethereum wallet.
Callers log in by signing a fixed challenge with their wallet and may
require that a download is backed by a detached signature of the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if cf, _ := cmd.Flags().GetString("config"); cf != "" {
			files = append(files, cf)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: WALLETVAULT_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: WALLETVAULT_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
