package render

import (
	"github.com/google/uuid"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

// Context is the data made available to every template in a bundle. Fields
// that only apply to CodeRun are left at their zero value for DocsRun
// (spec.md §6.1.1).
type Context struct {
	Task             agentrunv1alpha1.TaskType
	WorkingDirectory string
	SSHSecretName    string
	JobName          string

	ResumeSession      bool
	OverwriteMemory    bool
	PromptMode         string
	PromptModification string

	// OverconfidenceNotice is always set, but only the code-kind addendum
	// template references it.
	OverconfidenceNotice string

	// CodeRun-only fields; zero value on a DocsRun context.
	Service               string
	TaskID                int64
	PlatformRepositoryURL string
	PlatformBranch        string
	ContextVersion        int64

	// LocalTools, RemoteTools and ToolConfigRaw forward CodeRun's
	// Spec.ToolConfig to the tool-aggregator client config (spec.md
	// §3.1, §4.1). Zero value (no filtering, no raw addendum) when
	// ToolConfig is unset.
	LocalTools    []string
	RemoteTools   []string
	ToolConfigRaw string

	// DocsFeatureBranchSuffix is DocsRun-only: a random suffix for the
	// generated feature branch name (spec.md §4.7 step 6).
	DocsFeatureBranchSuffix string
}

// buildContext derives the render Context from a task, branching only on
// the concrete type to populate CodeRun-only fields (spec.md §6.1.1).
func buildContext(task agentrunv1alpha1.TaskType) Context {
	ctx := Context{
		Task:                 task,
		WorkingDirectory:     task.GetWorkingDirectory(),
		SSHSecretName:        agentrunv1alpha1.SSHSecretName(task.GetGitHubUser()),
		JobName:              task.JobName(),
		ContextVersion:       task.GetContextVersion(),
		OverconfidenceNotice: OverconfidenceNotice,
	}

	if _, ok := task.(*agentrunv1alpha1.DocsRun); ok {
		ctx.DocsFeatureBranchSuffix = uuid.New().String()
	}

	if code, ok := task.(*agentrunv1alpha1.CodeRun); ok {
		ctx.ResumeSession = code.Spec.ResumeSession
		ctx.OverwriteMemory = code.Spec.OverwriteMemory
		ctx.PromptMode = string(code.EffectivePromptMode())
		ctx.PromptModification = code.Spec.PromptModification
		ctx.Service = code.Spec.Service
		ctx.TaskID = code.Spec.TaskID
		ctx.PlatformRepositoryURL = code.Spec.PlatformRepositoryURL
		ctx.PlatformBranch = code.Spec.PlatformBranch

		if tc := code.Spec.ToolConfig; tc != nil {
			ctx.LocalTools = tc.LocalTools
			ctx.RemoteTools = tc.RemoteTools
			ctx.ToolConfigRaw = tc.Raw
		}
	}

	return ctx
}

type requiredField struct {
	field string
	value string
}

// validate checks that every context field a manifest template depends on
// is non-empty, returning InvalidDataError naming the first one found
// empty (spec.md §4.1 "InvalidData(field)", §8 scenario 4). CRD
// validation already rejects these as empty at admission time; this is
// the render engine's own precondition check for data that reaches it
// any other way (fixtures, a future non-CRD caller).
func (c Context) validate(taskKind string) error {
	required := []requiredField{
		{"repositoryUrl", c.Task.GetRepositoryURL()},
		{"branch", c.Task.GetBranch()},
		{"model", c.Task.GetModel()},
		{"githubUser", c.Task.GetGitHubUser()},
		{"workingDirectory", c.WorkingDirectory},
	}

	if taskKind == "code" {
		required = append(required,
			requiredField{"service", c.Service},
			requiredField{"platformRepositoryUrl", c.PlatformRepositoryURL},
			requiredField{"platformBranch", c.PlatformBranch},
		)
	}

	for _, r := range required {
		if r.value == "" {
			return &InvalidDataError{Field: r.field, Msg: "required by template but empty"}
		}
	}

	return nil
}
