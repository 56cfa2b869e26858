package v1alpha1

import (
	"fmt"
	"regexp"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// sshURLPattern enforces that repository URLs are SSH-only (spec.md §3.1,
// §6): "the controller does not make network calls to third-party
// version-control hosts; the agent container does that" over SSH.
var sshURLPattern = regexp.MustCompile(`^(git@|ssh://)`)

// DocsRunSpec defines the desired state of a DocsRun: generate
// documentation inside a single repository.
type DocsRunSpec struct {
	// RepositoryURL is the SSH URL of the repository to document.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Pattern="^(git@|ssh://).*"
	RepositoryURL string `json:"repositoryUrl"`

	// Branch is the branch to check out before generating documentation.
	// +kubebuilder:validation:Required
	Branch string `json:"branch"`

	// WorkingDirectory is the relative path within the repository to
	// operate in. Defaults to the repository root when unset.
	// +optional
	WorkingDirectory string `json:"workingDirectory,omitempty"`

	// Model identifies the coding-model backend to use.
	// +kubebuilder:validation:Required
	Model string `json:"model"`

	// GitHubUser names the identity whose SSH key secret
	// (github-ssh-<githubUser>) will be mounted.
	// +kubebuilder:validation:Required
	GitHubUser string `json:"githubUser"`
}

// DocsRunStatus defines the observed state of a DocsRun.
type DocsRunStatus struct {
	TaskStatus `json:",inline"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Repository",type=string,JSONPath=`.spec.repositoryUrl`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// DocsRun is the Schema for the docsruns API.
type DocsRun struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   DocsRunSpec   `json:"spec,omitempty"`
	Status DocsRunStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// DocsRunList contains a list of DocsRun.
type DocsRunList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []DocsRun `json:"items"`
}

func init() {
	SchemeBuilder.Register(&DocsRun{}, &DocsRunList{})
}

// TaskKind implements TaskType.
func (d *DocsRun) TaskKind() string { return "docs" }

// GetRepositoryURL implements TaskType.
func (d *DocsRun) GetRepositoryURL() string { return d.Spec.RepositoryURL }

// GetBranch implements TaskType.
func (d *DocsRun) GetBranch() string { return d.Spec.Branch }

// GetWorkingDirectory implements TaskType. A DocsRun has no service-derived
// default, so it returns the configured value, or "." (the repository
// root) when unset.
func (d *DocsRun) GetWorkingDirectory() string {
	if d.Spec.WorkingDirectory == "" {
		return "."
	}
	return d.Spec.WorkingDirectory
}

// GetModel implements TaskType.
func (d *DocsRun) GetModel() string { return d.Spec.Model }

// GetGitHubUser implements TaskType.
func (d *DocsRun) GetGitHubUser() string { return d.Spec.GitHubUser }

// GetContextVersion implements TaskType. DocsRun does not model
// contextVersion-style retries (spec.md §9), so this is always 0.
func (d *DocsRun) GetContextVersion() int64 { return 0 }

// JobName implements TaskType, producing the deterministic name
// "<githubUser>-<repo-slug>-docs" (spec.md §4.2).
func (d *DocsRun) JobName() string {
	return fmt.Sprintf("%s-%s-docs", d.Spec.GitHubUser, repoSlug(d.Spec.RepositoryURL))
}

// GetStatus implements TaskType.
func (d *DocsRun) GetStatus() *TaskStatus { return &d.Status.TaskStatus }

// repoSlug derives a short, DNS-label-safe slug from an SSH repository URL,
// e.g. "git@github.com:org/trader.git" -> "org-trader".
func repoSlug(repositoryURL string) string {
	trimmed := strings.TrimSuffix(repositoryURL, ".git")
	trimmed = strings.TrimPrefix(trimmed, "ssh://")
	trimmed = strings.TrimPrefix(trimmed, "git@")
	if idx := strings.Index(trimmed, ":"); idx != -1 {
		trimmed = trimmed[idx+1:]
	} else if idx := strings.Index(trimmed, "/"); idx != -1 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.Trim(trimmed, "/")
	slug := strings.ToLower(strings.ReplaceAll(trimmed, "/", "-"))
	if slug == "" {
		return "repo"
	}
	return slug
}

// ValidateSSHRepositoryURL reports whether repositoryURL is a valid SSH
// repository URL per spec.md §3.1.
func ValidateSSHRepositoryURL(repositoryURL string) error {
	if !sshURLPattern.MatchString(repositoryURL) {
		return fmt.Errorf("repositoryUrl %q must begin with git@ or ssh://", repositoryURL)
	}
	return nil
}
