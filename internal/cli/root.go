package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the agentctl command tree, grounded on the
// teacher's cli.NewRootCommand (one ClientConfig shared by every
// subcommand, persistent --kubeconfig/--context/--namespace flags).
func NewRootCommand() *cobra.Command {
	cfg := &ClientConfig{}

	root := &cobra.Command{
		Use:           "agentctl",
		Short:         "Submit and manage DocsRun/CodeRun agent tasks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&cfg.Kubeconfig, "kubeconfig", "", "path to a kubeconfig file (defaults to $KUBECONFIG, then $HOME/.kube/config)")
	root.PersistentFlags().StringVar(&cfg.Context, "context", "", "kubeconfig context to use")
	root.PersistentFlags().StringVarP(&cfg.Namespace, "namespace", "n", "", "target namespace (defaults to the agentctl config file, then the kubeconfig context)")
	root.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "path to the agentctl defaults file (default \"$HOME/.config/agentctl/config.yaml\")")

	root.AddCommand(newCreateCommand(cfg))
	root.AddCommand(newGetCommand(cfg))
	root.AddCommand(newDeleteCommand(cfg))
	root.AddCommand(newRetryCommand(cfg))

	return root
}
