package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// TaskPhase represents the current phase of a Task resource.
type TaskPhase string

const (
	// TaskPhasePending means the task has been accepted but no Job has
	// reached a running state yet.
	TaskPhasePending TaskPhase = "Pending"
	// TaskPhaseRunning means the task's Job is active.
	TaskPhaseRunning TaskPhase = "Running"
	// TaskPhaseSucceeded means the task's Job completed successfully.
	TaskPhaseSucceeded TaskPhase = "Succeeded"
	// TaskPhaseFailed means the task's Job failed.
	TaskPhaseFailed TaskPhase = "Failed"
)

// PromptMode controls how promptModification is combined with the task's
// prompt documentation on a CodeRun retry.
type PromptMode string

const (
	// PromptModeAppend appends promptModification to the base prompt.
	PromptModeAppend PromptMode = "append"
	// PromptModeReplace replaces the base prompt with promptModification.
	PromptModeReplace PromptMode = "replace"
)

// Condition is a typed status condition record, following the
// metav1.Condition shape used throughout the Kubernetes API conventions.
type Condition struct {
	// Type is the condition type (e.g. "Ready", "JobCreated").
	Type string `json:"type"`

	// Status is one of True, False, Unknown.
	// +kubebuilder:validation:Enum=True;False;Unknown
	Status metav1.ConditionStatus `json:"status"`

	// Reason is a short, machine-readable reason for the condition's last
	// transition.
	// +optional
	Reason string `json:"reason,omitempty"`

	// Message is a human-readable message.
	// +optional
	Message string `json:"message,omitempty"`

	// LastTransitionTime is the last time the condition transitioned.
	// +optional
	LastTransitionTime metav1.Time `json:"lastTransitionTime,omitempty"`
}

// TaskStatus is the observed-state surface shared by DocsRun and CodeRun.
// Only the controller writes these fields, and only via the status
// subresource.
type TaskStatus struct {
	// Phase is the current phase of the task.
	// +optional
	Phase TaskPhase `json:"phase,omitempty"`

	// Message is a human-readable one-liner describing the current phase.
	// +optional
	Message string `json:"message,omitempty"`

	// LastUpdate is when the status was last written by the controller.
	// +optional
	LastUpdate *metav1.Time `json:"lastUpdate,omitempty"`

	// PullRequestURL is supplied by the agent's completion hook through a
	// status-subresource write. DocsRun-only; the controller never sets or
	// clears it, only preserves it across its own status writes.
	// +optional
	PullRequestURL *string `json:"pullRequestUrl,omitempty"`

	// Conditions is an ordered list of typed condition records.
	// +optional
	Conditions []Condition `json:"conditions,omitempty"`
}

// TaskType is the shared capability surface implemented by both DocsRun and
// CodeRun. It lets the reconciler, the rendering engine, and the resource
// builders operate on either kind uniformly, per the "tagged variant with a
// shared capability trait" design (spec.md §9): the two kinds differ by
// data, not behavior.
type TaskType interface {
	client.Object

	// TaskKind returns "docs" or "code" and is used to prefix template
	// lookups (spec.md §4.1).
	TaskKind() string

	GetRepositoryURL() string
	GetBranch() string
	GetWorkingDirectory() string
	GetModel() string
	GetGitHubUser() string

	// GetContextVersion returns 0 for DocsRun, which does not model
	// contextVersion-style retries (spec.md §9 Open Questions).
	GetContextVersion() int64

	// JobName returns the deterministic Job name for the task's current
	// attempt (spec.md §3.4, §4.2).
	JobName() string

	GetStatus() *TaskStatus
}

// SSHSecretName derives the secret name mounted for a task's SSH
// credentials, per spec.md §3.1 and §6.
func SSHSecretName(githubUser string) string {
	return "github-ssh-" + githubUser
}
