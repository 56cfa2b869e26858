package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

func newDeleteCommand(cfg *ClientConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete DocsRun/CodeRun resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return fmt.Errorf("must specify a resource type")
		},
	}

	cmd.AddCommand(newDeleteDocsRunCommand(cfg))
	cmd.AddCommand(newDeleteCodeRunCommand(cfg))

	return cmd
}

func newDeleteDocsRunCommand(cfg *ClientConfig) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "docsrun [name]",
		Aliases: []string{"docsruns", "docs"},
		Short:   "Delete a DocsRun",
		Args: func(cmd *cobra.Command, args []string) error {
			return validateNameOrAll(all, args, "docsrun name", cmd.Use)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, ns, err := cfg.NewClient()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if all {
				list := &agentrunv1alpha1.DocsRunList{}
				if err := cl.List(ctx, list, client.InNamespace(ns)); err != nil {
					return fmt.Errorf("listing docsruns: %w", err)
				}
				if len(list.Items) == 0 {
					fmt.Fprintln(os.Stdout, "No docsruns found")
					return nil
				}
				for i := range list.Items {
					if err := cl.Delete(ctx, &list.Items[i]); err != nil {
						return fmt.Errorf("deleting docsrun %s: %w", list.Items[i].Name, err)
					}
					fmt.Fprintf(os.Stdout, "docsrun/%s deleted\n", list.Items[i].Name)
				}
				return nil
			}

			task := &agentrunv1alpha1.DocsRun{
				ObjectMeta: metav1.ObjectMeta{Name: args[0], Namespace: ns},
			}
			if err := cl.Delete(ctx, task); err != nil {
				return fmt.Errorf("deleting docsrun: %w", err)
			}
			fmt.Fprintf(os.Stdout, "docsrun/%s deleted\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete all docsruns in the namespace")
	return cmd
}

func newDeleteCodeRunCommand(cfg *ClientConfig) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "coderun [name]",
		Aliases: []string{"coderuns", "code"},
		Short:   "Delete a CodeRun",
		Args: func(cmd *cobra.Command, args []string) error {
			return validateNameOrAll(all, args, "coderun name", cmd.Use)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, ns, err := cfg.NewClient()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if all {
				list := &agentrunv1alpha1.CodeRunList{}
				if err := cl.List(ctx, list, client.InNamespace(ns)); err != nil {
					return fmt.Errorf("listing coderuns: %w", err)
				}
				if len(list.Items) == 0 {
					fmt.Fprintln(os.Stdout, "No coderuns found")
					return nil
				}
				for i := range list.Items {
					if err := cl.Delete(ctx, &list.Items[i]); err != nil {
						return fmt.Errorf("deleting coderun %s: %w", list.Items[i].Name, err)
					}
					fmt.Fprintf(os.Stdout, "coderun/%s deleted\n", list.Items[i].Name)
				}
				return nil
			}

			task := &agentrunv1alpha1.CodeRun{
				ObjectMeta: metav1.ObjectMeta{Name: args[0], Namespace: ns},
			}
			if err := cl.Delete(ctx, task); err != nil {
				return fmt.Errorf("deleting coderun: %w", err)
			}
			fmt.Fprintf(os.Stdout, "coderun/%s deleted\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete all coderuns in the namespace")
	return cmd
}

func validateNameOrAll(all bool, args []string, nameLabel, usage string) error {
	if all && len(args) > 0 {
		return fmt.Errorf("cannot specify %s with --all", nameLabel)
	}
	if !all {
		if len(args) == 0 {
			return fmt.Errorf("%s is required (or use --all)\nUsage: %s", nameLabel, usage)
		}
		if len(args) > 1 {
			return fmt.Errorf("too many arguments: expected 1 %s, got %d\nUsage: %s", nameLabel, len(args), usage)
		}
	}
	return nil
}
