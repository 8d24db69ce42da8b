/*
Package main is the entry point for the mfginsight CLI.

Usage:

	mfginsight [command]

Available Commands:

	serve     Run the HTTP API
	ask       Answer a question about the stored events
	similar   List the events most similar to one event
	pairwise  Compare two events
	project   Print a 2-D layout of every embedded event

Configuration comes from defaults, the YAML file named by MFG_CONFIG and
MFG_ prefixed environment variables, in that order.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	var level string

	rootCmd := &cobra.Command{
		Use:           "mfginsight",
		Short:         "Question answering and similarity search over manufacturing events",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&level, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		newServeCmd(&level),
		newAskCmd(&level),
		newSimilarCmd(&level),
		newPairwiseCmd(&level),
		newProjectCmd(&level),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
