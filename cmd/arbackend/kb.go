package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nova-ar/arbackend/internal/knowledge"
)

func newKnowledgeBaseCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "kb",
		Short: "Knowledge base commands",
	}
	command.AddCommand(newKnowledgeBaseCheckCommand())
	return command
}

func newKnowledgeBaseCheckCommand() *cobra.Command {
	var list bool

	command := &cobra.Command{
		Use:   "check [object-name]...",
		Short: "Load the configured knowledge base and report which objects it covers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.KnowledgeBase.Path == "" {
				return fmt.Errorf("knowledge_base.path is not configured")
			}

			base, err := knowledge.Load(cfg.KnowledgeBase.Path, cfg.KnowledgeBase.Sheet)
			if err != nil {
				return fmt.Errorf("knowledge.Load() > %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d entries\n", cfg.KnowledgeBase.Path, base.Len())
			if list {
				for _, name := range base.Names() {
					fmt.Fprintf(out, "  %s\n", name)
				}
			}

			var missing int
			for _, name := range args {
				entry, ok := base.Lookup(name)
				if !ok {
					missing++
					fmt.Fprintln(out, color.RedString("✗ %s", name))
					continue
				}
				fmt.Fprintf(out, "%s %s\n", color.GreenString("✓ %s", name), entry.Description)
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d objects have no knowledge base entry", missing, len(args))
			}
			return nil
		},
	}
	command.Flags().BoolVar(&list, "list", false, "Print every object name in the knowledge base")
	return command
}
