package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nova-ar/arbackend/internal/answer"
	"github.com/nova-ar/arbackend/internal/object"
)

// QuestionKey is a pflag.Value accepting the question keys the mobile client sends.
type QuestionKey object.Category

func (k *QuestionKey) Set(val string) error {
	category, ok := object.ParseCategory(val)
	if !ok {
		return fmt.Errorf("invalid question key: %s", val)
	}
	*k = QuestionKey(category)
	return nil
}

func (k QuestionKey) String() string {
	return string(k)
}

func (k *QuestionKey) Type() string {
	return "QuestionKey"
}

var _ pflag.Value = (*QuestionKey)(nil)

func newAskCommand() *cobra.Command {
	key := QuestionKey(object.CategoryDefinition)
	var question string

	command := &cobra.Command{
		Use:   "ask <object-name>",
		Short: "Answer a question about an object the way the server does, including the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			result, err := service.Resolve(ctx, answer.Request{
				ObjectName:     args[0],
				QuestionKey:    key.String(),
				CustomQuestion: question,
			})
			if err != nil {
				return fmt.Errorf("service.Resolve() > %w", err)
			}

			out := cmd.OutOrStdout()
			source := "model"
			if result.Cached {
				source = "cache"
			}
			if _, err := fmt.Fprintf(out, "%s %s\n", color.CyanString("[%s]", source), result.Answer); err != nil {
				return err
			}
			if result.AudioBase64 == "" {
				_, err = fmt.Fprintln(out, color.YellowString("no audio"))
				return err
			}
			return nil
		},
	}

	allKeys := make([]string, 0, len(object.AllCategories))
	for _, c := range object.AllCategories {
		allKeys = append(allKeys, c.String())
	}
	flags := command.Flags()
	flags.Var(&key, "key", fmt.Sprintf("Question key. Possible values are %s", strings.Join(allKeys, ", ")))
	flags.StringVarP(&question, "question", "q", "", "Question text for the custom key")
	return command
}
