package main

import (
	"os"

	"NeuroQ/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "neuroq",
		Short:         "NeuroQ real-time support gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, triageCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("neuroq: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}
