package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

func newCreateCommand(cfg *ClientConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create DocsRun/CodeRun resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return fmt.Errorf("must specify a resource type")
		},
	}

	cmd.AddCommand(newCreateDocsRunCommand(cfg))
	cmd.AddCommand(newCreateCodeRunCommand(cfg))

	return cmd
}

func newCreateDocsRunCommand(cfg *ClientConfig) *cobra.Command {
	var (
		name             string
		repositoryURL    string
		branch           string
		workingDirectory string
		model            string
		githubUser       string
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "docsrun",
		Short: "Create a DocsRun",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := agentrunv1alpha1.ValidateSSHRepositoryURL(repositoryURL); err != nil {
				return err
			}
			if err := fallbackDefaults(cfg, &model, &githubUser); err != nil {
				return err
			}

			task := &agentrunv1alpha1.DocsRun{
				Spec: agentrunv1alpha1.DocsRunSpec{
					RepositoryURL:    repositoryURL,
					Branch:           branch,
					WorkingDirectory: workingDirectory,
					Model:            model,
					GitHubUser:       githubUser,
				},
			}
			if name != "" {
				task.Name = name
			}

			if dryRun {
				task.SetGroupVersionKind(agentrunv1alpha1.GroupVersion.WithKind("DocsRun"))
				return printYAML(os.Stdout, task)
			}

			cl, ns, err := cfg.NewClient()
			if err != nil {
				return err
			}
			task.Namespace = ns
			if task.Name == "" {
				task.GenerateName = "docsrun-"
			}

			if err := cl.Create(context.Background(), task); err != nil {
				return fmt.Errorf("creating docsrun: %w", err)
			}
			fmt.Fprintf(os.Stdout, "docsrun/%s created\n", task.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "resource name (auto-generated when unset)")
	cmd.Flags().StringVar(&repositoryURL, "repository-url", "", "SSH URL of the repository to document (required)")
	cmd.Flags().StringVar(&branch, "branch", "", "branch to check out (required)")
	cmd.Flags().StringVar(&workingDirectory, "working-directory", "", "relative path within the repository")
	cmd.Flags().StringVar(&model, "model", "", "coding-model backend (falls back to agentctl defaults)")
	cmd.Flags().StringVar(&githubUser, "github-user", "", "identity whose SSH key secret is mounted (falls back to agentctl defaults)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resource that would be created without submitting it")

	cmd.MarkFlagRequired("repository-url")
	cmd.MarkFlagRequired("branch")

	return cmd
}

func newCreateCodeRunCommand(cfg *ClientConfig) *cobra.Command {
	var (
		name                  string
		repositoryURL         string
		sourceBranch          string
		workingDirectory      string
		model                 string
		githubUser            string
		taskID                int64
		service               string
		platformRepositoryURL string
		platformBranch        string
		contextVersion        int64
		promptModification    string
		promptMode            string
		resumeSession         bool
		overwriteMemory       bool
		dryRun                bool
	)

	cmd := &cobra.Command{
		Use:   "coderun",
		Short: "Create a CodeRun",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := agentrunv1alpha1.ValidateSSHRepositoryURL(repositoryURL); err != nil {
				return err
			}
			if err := agentrunv1alpha1.ValidateSSHRepositoryURL(platformRepositoryURL); err != nil {
				return err
			}
			if err := fallbackDefaults(cfg, &model, &githubUser); err != nil {
				return err
			}
			if contextVersion < 1 {
				contextVersion = 1
			}

			task := &agentrunv1alpha1.CodeRun{
				Spec: agentrunv1alpha1.CodeRunSpec{
					RepositoryURL:         repositoryURL,
					SourceBranch:          sourceBranch,
					WorkingDirectory:      workingDirectory,
					Model:                 model,
					GitHubUser:            githubUser,
					TaskID:                taskID,
					Service:               service,
					PlatformRepositoryURL: platformRepositoryURL,
					PlatformBranch:        platformBranch,
					ContextVersion:        contextVersion,
					PromptModification:    promptModification,
					PromptMode:            agentrunv1alpha1.PromptMode(promptMode),
					ResumeSession:         resumeSession,
					OverwriteMemory:       overwriteMemory,
				},
			}
			task.Name = name
			if task.Name == "" {
				task.Name = fmt.Sprintf("%s-task%d-attempt%d", service, taskID, contextVersion)
			}

			if dryRun {
				task.SetGroupVersionKind(agentrunv1alpha1.GroupVersion.WithKind("CodeRun"))
				return printYAML(os.Stdout, task)
			}

			cl, ns, err := cfg.NewClient()
			if err != nil {
				return err
			}
			task.Namespace = ns

			if err := cl.Create(context.Background(), task); err != nil {
				return fmt.Errorf("creating coderun: %w", err)
			}
			fmt.Fprintf(os.Stdout, "coderun/%s created\n", task.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "resource name (defaults to <service>-task<taskId>-attempt<contextVersion>)")
	cmd.Flags().StringVar(&repositoryURL, "repository-url", "", "SSH URL of the destination repository (required)")
	cmd.Flags().StringVar(&sourceBranch, "source-branch", "", "branch of the destination repository to start from (required)")
	cmd.Flags().StringVar(&workingDirectory, "working-directory", "", "relative path within the destination repository")
	cmd.Flags().StringVar(&model, "model", "", "coding-model backend (falls back to agentctl defaults)")
	cmd.Flags().StringVar(&githubUser, "github-user", "", "identity whose SSH key secret is mounted (falls back to agentctl defaults)")
	cmd.Flags().Int64Var(&taskID, "task-id", 0, "task identifier within the platform repository (required)")
	cmd.Flags().StringVar(&service, "service", "", "per-service workspace volume name (required)")
	cmd.Flags().StringVar(&platformRepositoryURL, "platform-repository-url", "", "SSH URL of the repository containing task documentation (required)")
	cmd.Flags().StringVar(&platformBranch, "platform-branch", "", "branch of the platform repository to read task documentation from (required)")
	cmd.Flags().Int64Var(&contextVersion, "context-version", 1, "attempt number; bump to start a new attempt")
	cmd.Flags().StringVar(&promptModification, "prompt-modification", "", "free-text addendum for retries")
	cmd.Flags().StringVar(&promptMode, "prompt-mode", "append", "how prompt-modification combines with the base prompt (append or replace)")
	cmd.Flags().BoolVar(&resumeSession, "resume-session", false, "invoke the agent with a session-continuation flag")
	cmd.Flags().BoolVar(&overwriteMemory, "overwrite-memory", false, "replace the agent's persistent memory file on restart")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resource that would be created without submitting it")

	cmd.MarkFlagRequired("repository-url")
	cmd.MarkFlagRequired("source-branch")
	cmd.MarkFlagRequired("task-id")
	cmd.MarkFlagRequired("service")
	cmd.MarkFlagRequired("platform-repository-url")
	cmd.MarkFlagRequired("platform-branch")

	return cmd
}

// fallbackDefaults fills model/githubUser from the agentctl defaults file
// when the corresponding flag was left empty, then errors if still unset.
func fallbackDefaults(cfg *ClientConfig, model, githubUser *string) error {
	if *model != "" && *githubUser != "" {
		return nil
	}
	d, err := cfg.loadDefaults()
	if err != nil {
		return err
	}
	if *model == "" {
		*model = d.Model
	}
	if *githubUser == "" {
		*githubUser = d.GitHubUser
	}
	if *model == "" {
		return fmt.Errorf("--model is required (or set \"model\" in the agentctl config file)")
	}
	if *githubUser == "" {
		return fmt.Errorf("--github-user is required (or set \"githubUser\" in the agentctl config file)")
	}
	return nil
}
