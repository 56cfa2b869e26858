package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

func newRetryCommand(cfg *ClientConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Retry a CodeRun by bumping its context version",
	}

	cmd.AddCommand(newRetryCodeRunCommand(cfg))
	return cmd
}

// newRetryCodeRunCommand creates a new CodeRun with contextVersion bumped
// from an existing one, per spec.md §4.6: a retry of the same (service,
// taskId) tuple is a new Job name, not a mutation of the existing CodeRun.
func newRetryCodeRunCommand(cfg *ClientConfig) *cobra.Command {
	var (
		contextVersion     int64
		promptModification string
		promptMode         string
		resumeSession      bool
		overwriteMemory    bool
		dryRun             bool
	)

	cmd := &cobra.Command{
		Use:   "coderun <name>",
		Short: "Retry an existing CodeRun with a new context version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, ns, err := cfg.NewClient()
			if err != nil {
				return err
			}
			ctx := context.Background()

			existing := &agentrunv1alpha1.CodeRun{}
			if err := cl.Get(ctx, client.ObjectKey{Name: args[0], Namespace: ns}, existing); err != nil {
				return fmt.Errorf("getting coderun %s: %w", args[0], err)
			}

			next := existing.Spec
			if contextVersion != 0 {
				next.ContextVersion = contextVersion
			} else {
				next.ContextVersion = existing.Spec.ContextVersion + 1
			}
			if promptModification != "" {
				next.PromptModification = promptModification
			}
			if promptMode != "" {
				next.PromptMode = agentrunv1alpha1.PromptMode(promptMode)
			}
			if cmd.Flags().Changed("resume-session") {
				next.ResumeSession = resumeSession
			}
			if cmd.Flags().Changed("overwrite-memory") {
				next.OverwriteMemory = overwriteMemory
			}

			retry := &agentrunv1alpha1.CodeRun{
				Spec: next,
			}
			retry.Name = fmt.Sprintf("%s-task%d-attempt%d", next.Service, next.TaskID, next.ContextVersion)
			retry.Namespace = ns

			if dryRun {
				retry.SetGroupVersionKind(agentrunv1alpha1.GroupVersion.WithKind("CodeRun"))
				return printYAML(os.Stdout, retry)
			}

			if err := cl.Create(ctx, retry); err != nil {
				return fmt.Errorf("creating retry coderun: %w", err)
			}
			fmt.Fprintf(os.Stdout, "coderun/%s created\n", retry.Name)
			return nil
		},
	}

	cmd.Flags().Int64Var(&contextVersion, "context-version", 0, "explicit new attempt number (defaults to current + 1)")
	cmd.Flags().StringVar(&promptModification, "prompt-modification", "", "free-text addendum carried into the retry")
	cmd.Flags().StringVar(&promptMode, "prompt-mode", "", "override how prompt-modification combines with the base prompt")
	cmd.Flags().BoolVar(&resumeSession, "resume-session", false, "invoke the agent with a session-continuation flag")
	cmd.Flags().BoolVar(&overwriteMemory, "overwrite-memory", false, "replace the agent's persistent memory file on restart")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resource that would be created without submitting it")

	return cmd
}
