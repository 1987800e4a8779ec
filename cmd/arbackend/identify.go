package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/h2non/filetype"
	"github.com/spf13/cobra"

	"github.com/nova-ar/arbackend/internal/inference"
	"github.com/nova-ar/arbackend/internal/prompt"
)

func newIdentifyCommand() *cobra.Command {
	var question string

	command := &cobra.Command{
		Use:   "identify <image-file>",
		Short: "Name the object in a photo, or answer a question about it with --question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := readImage(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			service, closeService, err := newService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeService()

			out := cmd.OutOrStdout()
			if question != "" {
				result, err := service.AskAboutImage(ctx, image, question)
				if err != nil {
					return fmt.Errorf("service.AskAboutImage() > %w", err)
				}
				_, err = fmt.Fprintln(out, result.Answer)
				return err
			}

			result, err := service.Identify(ctx, image)
			if err != nil {
				return fmt.Errorf("service.Identify() > %w", err)
			}
			if result.ObjectName == "" || result.ObjectName == prompt.UnknownObject {
				_, err = fmt.Fprintln(out, color.YellowString("No object recognized."))
				return err
			}
			_, err = fmt.Fprintln(out, color.GreenString(result.ObjectName))
			return err
		},
	}
	command.Flags().StringVarP(&question, "question", "q", "", "Ask this question about the photo instead of naming the object")
	return command
}

func readImage(path string) (inference.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return inference.Image{}, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}
	if !filetype.IsImage(data) {
		return inference.Image{}, fmt.Errorf("%s is not an image", path)
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return inference.Image{}, fmt.Errorf("filetype.Match(%s) > %w", path, err)
	}
	return inference.Image{Data: data, MIMEType: kind.MIME.Value}, nil
}
