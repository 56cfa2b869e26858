package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

func newGetCommand(cfg *ClientConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get DocsRun/CodeRun resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return fmt.Errorf("must specify a resource type")
		},
	}

	cmd.AddCommand(newGetDocsRunCommand(cfg))
	cmd.AddCommand(newGetCodeRunCommand(cfg))

	return cmd
}

func newGetDocsRunCommand(cfg *ClientConfig) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "docsrun [name]",
		Aliases: []string{"docsruns", "docs"},
		Short:   "List DocsRuns or show details of one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			cl, ns, err := cfg.NewClient()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if len(args) == 1 {
				task := &agentrunv1alpha1.DocsRun{}
				if err := cl.Get(ctx, client.ObjectKey{Name: args[0], Namespace: ns}, task); err != nil {
					return fmt.Errorf("getting docsrun: %w", err)
				}
				task.SetGroupVersionKind(agentrunv1alpha1.GroupVersion.WithKind("DocsRun"))
				switch output {
				case "yaml":
					return printYAML(os.Stdout, task)
				case "json":
					return printJSON(os.Stdout, task)
				default:
					printDocsRunDetail(os.Stdout, task)
					return nil
				}
			}

			list := &agentrunv1alpha1.DocsRunList{}
			if err := cl.List(ctx, list, client.InNamespace(ns)); err != nil {
				return fmt.Errorf("listing docsruns: %w", err)
			}
			list.SetGroupVersionKind(agentrunv1alpha1.GroupVersion.WithKind("DocsRunList"))
			switch output {
			case "yaml":
				return printYAML(os.Stdout, list)
			case "json":
				return printJSON(os.Stdout, list)
			default:
				printDocsRunTable(os.Stdout, list.Items)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format (yaml or json)")
	return cmd
}

func newGetCodeRunCommand(cfg *ClientConfig) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "coderun [name]",
		Aliases: []string{"coderuns", "code"},
		Short:   "List CodeRuns or show details of one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}

			cl, ns, err := cfg.NewClient()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if len(args) == 1 {
				task := &agentrunv1alpha1.CodeRun{}
				if err := cl.Get(ctx, client.ObjectKey{Name: args[0], Namespace: ns}, task); err != nil {
					return fmt.Errorf("getting coderun: %w", err)
				}
				task.SetGroupVersionKind(agentrunv1alpha1.GroupVersion.WithKind("CodeRun"))
				switch output {
				case "yaml":
					return printYAML(os.Stdout, task)
				case "json":
					return printJSON(os.Stdout, task)
				default:
					printCodeRunDetail(os.Stdout, task)
					return nil
				}
			}

			list := &agentrunv1alpha1.CodeRunList{}
			if err := cl.List(ctx, list, client.InNamespace(ns)); err != nil {
				return fmt.Errorf("listing coderuns: %w", err)
			}
			list.SetGroupVersionKind(agentrunv1alpha1.GroupVersion.WithKind("CodeRunList"))
			switch output {
			case "yaml":
				return printYAML(os.Stdout, list)
			case "json":
				return printJSON(os.Stdout, list)
			default:
				printCodeRunTable(os.Stdout, list.Items)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format (yaml or json)")
	return cmd
}

func validateOutput(output string) error {
	if output != "" && output != "yaml" && output != "json" {
		return fmt.Errorf("unknown output format %q: must be one of yaml, json", output)
	}
	return nil
}
