package v1alpha1

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ToolConfig forwards tool-filtering parameters to the agent's tool
// aggregator ("toolhub").
type ToolConfig struct {
	// LocalTools is a list of local tool names to allow.
	// +optional
	LocalTools []string `json:"localTools,omitempty"`

	// RemoteTools is a list of remote tool names to allow.
	// +optional
	RemoteTools []string `json:"remoteTools,omitempty"`

	// Raw carries any additional, free-form tool-aggregator configuration
	// forwarded verbatim into the rendered client configuration file.
	// +optional
	Raw string `json:"raw,omitempty"`
}

// CodeRunSpec defines the desired state of a CodeRun: implement a specific
// task inside a destination repository, using documentation sourced from a
// platform repository.
type CodeRunSpec struct {
	// RepositoryURL is the SSH URL of the destination repository.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Pattern="^(git@|ssh://).*"
	RepositoryURL string `json:"repositoryUrl"`

	// SourceBranch is the branch of the destination repository to start
	// from.
	// +kubebuilder:validation:Required
	SourceBranch string `json:"sourceBranch"`

	// WorkingDirectory is the relative path within the destination
	// repository. Defaults to Service when unset (spec.md §3.1, §8).
	// +optional
	WorkingDirectory string `json:"workingDirectory,omitempty"`

	// Model identifies the coding-model backend to use.
	// +kubebuilder:validation:Required
	Model string `json:"model"`

	// GitHubUser names the identity whose SSH key secret will be mounted.
	// +kubebuilder:validation:Required
	GitHubUser string `json:"githubUser"`

	// TaskID identifies the specific task documentation to fetch from the
	// platform repository.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Minimum=1
	TaskID int64 `json:"taskId"`

	// Service names the per-service workspace volume and, when
	// WorkingDirectory is unset, provides the default working directory.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Pattern="^[a-z0-9]([-a-z0-9]*[a-z0-9])?$"
	Service string `json:"service"`

	// PlatformRepositoryURL is the SSH URL of the repository containing
	// task documentation.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Pattern="^(git@|ssh://).*"
	PlatformRepositoryURL string `json:"platformRepositoryUrl"`

	// PlatformBranch is the branch of the platform repository to read
	// task documentation from.
	// +kubebuilder:validation:Required
	PlatformBranch string `json:"platformBranch"`

	// ContextVersion is monotonic across retries of the same
	// (service, taskId) tuple; bumping it starts a new attempt
	// (spec.md §3.1, §4.6).
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Minimum=1
	ContextVersion int64 `json:"contextVersion"`

	// PromptModification is an optional free-text addendum for retries.
	// +optional
	PromptModification string `json:"promptModification,omitempty"`

	// PromptMode controls how PromptModification combines with the base
	// task prompt. Defaults to "append".
	// +optional
	// +kubebuilder:validation:Enum=append;replace
	// +kubebuilder:default=append
	PromptMode PromptMode `json:"promptMode,omitempty"`

	// ResumeSession controls whether the agent is invoked with a
	// session-continuation flag.
	// +optional
	ResumeSession bool `json:"resumeSession,omitempty"`

	// OverwriteMemory governs whether the agent's persistent memory file
	// is replaced on restart (spec.md §4.7 step 7).
	// +optional
	OverwriteMemory bool `json:"overwriteMemory,omitempty"`

	// ToolConfig forwards tool-filtering parameters to the agent's tool
	// aggregator.
	// +optional
	ToolConfig *ToolConfig `json:"toolConfig,omitempty"`
}

// CodeRunStatus defines the observed state of a CodeRun.
type CodeRunStatus struct {
	TaskStatus `json:",inline"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Service",type=string,JSONPath=`.spec.service`
// +kubebuilder:printcolumn:name="Task",type=integer,JSONPath=`.spec.taskId`
// +kubebuilder:printcolumn:name="Attempt",type=integer,JSONPath=`.spec.contextVersion`
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// CodeRun is the Schema for the coderuns API.
type CodeRun struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CodeRunSpec   `json:"spec,omitempty"`
	Status CodeRunStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// CodeRunList contains a list of CodeRun.
type CodeRunList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []CodeRun `json:"items"`
}

func init() {
	SchemeBuilder.Register(&CodeRun{}, &CodeRunList{})
}

// TaskKind implements TaskType.
func (c *CodeRun) TaskKind() string { return "code" }

// GetRepositoryURL implements TaskType.
func (c *CodeRun) GetRepositoryURL() string { return c.Spec.RepositoryURL }

// GetBranch implements TaskType.
func (c *CodeRun) GetBranch() string { return c.Spec.SourceBranch }

// GetWorkingDirectory implements TaskType, defaulting to Service when
// WorkingDirectory is unset (spec.md §3.1, §8 boundary behavior).
func (c *CodeRun) GetWorkingDirectory() string {
	if c.Spec.WorkingDirectory != "" {
		return c.Spec.WorkingDirectory
	}
	return c.Spec.Service
}

// GetModel implements TaskType.
func (c *CodeRun) GetModel() string { return c.Spec.Model }

// GetGitHubUser implements TaskType.
func (c *CodeRun) GetGitHubUser() string { return c.Spec.GitHubUser }

// GetContextVersion implements TaskType.
func (c *CodeRun) GetContextVersion() int64 { return c.Spec.ContextVersion }

// JobName implements TaskType, producing the deterministic name
// "<service>-task<taskId>-attempt<contextVersion>" (spec.md §4.2). Two
// reconciliations of the same logical attempt always produce this same
// name, which is the basis of the at-most-one-Job invariant (spec.md §8).
func (c *CodeRun) JobName() string {
	return fmt.Sprintf("%s-task%d-attempt%d", c.Spec.Service, c.Spec.TaskID, c.Spec.ContextVersion)
}

// GetStatus implements TaskType.
func (c *CodeRun) GetStatus() *TaskStatus { return &c.Status.TaskStatus }

// EffectivePromptMode returns the configured PromptMode, defaulting to
// PromptModeAppend when unset.
func (c *CodeRun) EffectivePromptMode() PromptMode {
	if c.Spec.PromptMode == "" {
		return PromptModeAppend
	}
	return c.Spec.PromptMode
}

// WorkspacePVCName returns the deterministic name of the per-service
// workspace volume (spec.md §3.3): "workspace-<service>".
func (c *CodeRun) WorkspacePVCName() string {
	return WorkspacePVCName(c.Spec.Service)
}

// WorkspacePVCName returns the deterministic workspace PVC name for a
// service, shared by the builder package so it does not need a CodeRun
// value in hand.
func WorkspacePVCName(service string) string {
	return "workspace-" + service
}
