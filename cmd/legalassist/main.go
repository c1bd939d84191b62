package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "legalassist",
		Short:   "Legal document compliance pipeline",
		Version: Version,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Path to config file")

	rootCmd.AddCommand(serveProcessorCmd())
	rootCmd.AddCommand(serveAdvisorCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
