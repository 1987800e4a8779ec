package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nova-ar/arbackend/internal/bootstrap"
)

var (
	configFile string
	logger     = zap.NewNop()
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCommand := &cobra.Command{
		Use:           "arbackend",
		Short:         "Operate the AR learning backend from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(debugMode)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	rootCommand.AddCommand(
		newMigrateCommand(),
		newAskCommand(),
		newIdentifyCommand(),
		newSpeakCommand(),
		newKnowledgeBaseCommand(),
	)
	return rootCommand
}

// setupLogger replaces the package logger based on debug mode
func setupLogger(debugMode bool) error {
	l, err := bootstrap.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("bootstrap.NewLogger() > %w", err)
	}
	logger = l
	return nil
}
