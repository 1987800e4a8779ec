package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nova-ar/arbackend/internal/bootstrap"
)

func newSpeakCommand() *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:   "speak <text>...",
		Short: "Synthesize text with the configured speech backend and save it as MP3",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			adapter, closeSpeech := bootstrap.NewSpeech(ctx, cfg.Speech, logger)
			defer func() {
				_ = closeSpeech()
			}()

			audio, err := adapter.Synthesize(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("adapter.Synthesize() > %w", err)
			}
			if err := os.WriteFile(output, audio, 0644); err != nil {
				return fmt.Errorf("os.WriteFile(%s) > %w", output, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Wrote %d bytes to %s", len(audio), output))
			return err
		},
	}
	command.Flags().StringVarP(&output, "output", "o", "speech.mp3", "MP3 file to write")
	return command
}
