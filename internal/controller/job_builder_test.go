package controller

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

func newCodeRun() *agentrunv1alpha1.CodeRun {
	return &agentrunv1alpha1.CodeRun{
		ObjectMeta: metav1.ObjectMeta{Name: "trader-task7-attempt1", Namespace: "default"},
		Spec: agentrunv1alpha1.CodeRunSpec{
			RepositoryURL:         "git@github.com:org/trader.git",
			SourceBranch:          "main",
			Model:                 "claude-sonnet",
			GitHubUser:            "bot-a",
			TaskID:                7,
			Service:               "trader",
			PlatformRepositoryURL: "git@github.com:org/platform.git",
			PlatformBranch:        "main",
			ContextVersion:        1,
		},
	}
}

func TestJobBuilder_Build_CodeRun(t *testing.T) {
	builder := NewJobBuilder()
	task := newCodeRun()
	configMap := BuildTaskConfigMap(task, map[string]string{"init.sh": "#!/bin/sh\n"})

	job, err := builder.Build(task, configMap)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if job.Name != task.JobName() {
		t.Errorf("expected job name %q, got %q", task.JobName(), job.Name)
	}

	if *job.Spec.BackoffLimit != 0 {
		t.Errorf("expected BackoffLimit 0, got %d", *job.Spec.BackoffLimit)
	}
	if *job.Spec.TTLSecondsAfterFinished != DefaultTTLSecondsAfterFinished {
		t.Errorf("expected TTL %d, got %d", DefaultTTLSecondsAfterFinished, *job.Spec.TTLSecondsAfterFinished)
	}

	container := job.Spec.Template.Spec.Containers[0]
	wantCommand := []string{"sh", taskFilesMountPath + "/init.sh"}
	if len(container.Command) != 2 || container.Command[0] != wantCommand[0] || container.Command[1] != wantCommand[1] {
		t.Errorf("expected command %v, got %v", wantCommand, container.Command)
	}

	foundWorkspace := false
	for _, v := range job.Spec.Template.Spec.Volumes {
		if v.Name == workspaceVolumeName {
			foundWorkspace = true
			if v.PersistentVolumeClaim == nil || v.PersistentVolumeClaim.ClaimName != task.WorkspacePVCName() {
				t.Errorf("expected workspace PVC claim %q, got %+v", task.WorkspacePVCName(), v.PersistentVolumeClaim)
			}
		}
	}
	if !foundWorkspace {
		t.Errorf("expected a workspace volume for a CodeRun job")
	}

	foundSettingsMount := false
	for _, m := range container.VolumeMounts {
		if m.MountPath == managedSettingsPath {
			foundSettingsMount = true
			if m.SubPath != "managed-settings.json" {
				t.Errorf("expected subPath managed-settings.json, got %q", m.SubPath)
			}
			if !m.ReadOnly {
				t.Errorf("expected managed-settings.json mount to be read-only")
			}
		}
	}
	if !foundSettingsMount {
		t.Errorf("expected a sub-path mount at %s", managedSettingsPath)
	}
}

func TestJobBuilder_Build_CodeRunEnv(t *testing.T) {
	task := newCodeRun()
	configMap := BuildTaskConfigMap(task, map[string]string{"init.sh": "#!/bin/sh\n"})

	job, err := NewJobBuilder().Build(task, configMap)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	env := map[string]string{}
	for _, e := range job.Spec.Template.Spec.Containers[0].Env {
		env[e.Name] = e.Value
	}

	wantEnv := map[string]string{
		"AGENTRUN_TASK_KIND":       "code",
		"AGENTRUN_JOB_NAME":        task.JobName(),
		"AGENTRUN_MODEL":           "claude-sonnet",
		"AGENTRUN_GITHUB_USER":     "bot-a",
		"AGENTRUN_SERVICE":         "trader",
		"AGENTRUN_TASK_ID":         "7",
		"AGENTRUN_CONTEXT_VERSION": "1",
		"TOOLHUB_CONFIG":           toolhubConfigPath,
	}
	for name, want := range wantEnv {
		got, ok := env[name]
		if !ok {
			t.Errorf("expected env var %s to be set", name)
			continue
		}
		if got != want {
			t.Errorf("expected %s=%q, got %q", name, want, got)
		}
	}
}

func TestJobBuilder_Build_DocsRunEnvHasNoToolhubConfig(t *testing.T) {
	task := &agentrunv1alpha1.DocsRun{
		ObjectMeta: metav1.ObjectMeta{Name: "bot-a-org-trader-docs", Namespace: "default"},
		Spec: agentrunv1alpha1.DocsRunSpec{
			RepositoryURL: "git@github.com:org/trader.git",
			Branch:        "main",
			Model:         "claude-sonnet",
			GitHubUser:    "bot-a",
		},
	}
	configMap := BuildTaskConfigMap(task, map[string]string{"init.sh": "#!/bin/sh\n"})

	job, err := NewJobBuilder().Build(task, configMap)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	for _, e := range job.Spec.Template.Spec.Containers[0].Env {
		if e.Name == "TOOLHUB_CONFIG" {
			t.Errorf("did not expect TOOLHUB_CONFIG for a DocsRun job")
		}
	}
}

func TestJobBuilder_Build_DocsRunHasNoWorkspaceVolume(t *testing.T) {
	task := &agentrunv1alpha1.DocsRun{
		ObjectMeta: metav1.ObjectMeta{Name: "bot-a-org-trader-docs", Namespace: "default"},
		Spec: agentrunv1alpha1.DocsRunSpec{
			RepositoryURL: "git@github.com:org/trader.git",
			Branch:        "main",
			Model:         "claude-sonnet",
			GitHubUser:    "bot-a",
		},
	}
	configMap := BuildTaskConfigMap(task, map[string]string{"init.sh": "#!/bin/sh\n"})

	job, err := NewJobBuilder().Build(task, configMap)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	for _, v := range job.Spec.Template.Spec.Volumes {
		if v.Name == workspaceVolumeName {
			t.Errorf("did not expect a workspace volume for a DocsRun job")
		}
	}
}

func TestJobBuilder_Build_SSHVolumeModes(t *testing.T) {
	task := newCodeRun()
	configMap := BuildTaskConfigMap(task, map[string]string{"init.sh": "#!/bin/sh\n"})

	job, err := NewJobBuilder().Build(task, configMap)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	var sshVolume *corev1.Volume
	for i := range job.Spec.Template.Spec.Volumes {
		if job.Spec.Template.Spec.Volumes[i].Name == sshVolumeName {
			sshVolume = &job.Spec.Template.Spec.Volumes[i]
		}
	}
	if sshVolume == nil || sshVolume.Secret == nil {
		t.Fatalf("expected an SSH secret volume")
	}
	if sshVolume.Secret.SecretName != "github-ssh-bot-a" {
		t.Errorf("expected secret name github-ssh-bot-a, got %q", sshVolume.Secret.SecretName)
	}
	if len(sshVolume.Secret.Items) != 2 {
		t.Fatalf("expected 2 SSH key items, got %d", len(sshVolume.Secret.Items))
	}
	if *sshVolume.Secret.Items[0].Mode != 0o600 {
		t.Errorf("expected private key mode 0600, got %o", *sshVolume.Secret.Items[0].Mode)
	}
}
