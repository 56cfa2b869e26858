package controller

import (
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

const (
	// DefaultAgentImage is the image used for every agent container. Unlike
	// the teacher, this controller does not pick an image per agent
	// backend — model selection is an in-container concern driven by
	// spec.Model (spec.md §3.1), not an image choice.
	DefaultAgentImage = "ghcr.io/agentrun/agent-runner:latest"

	// AgentUID is the UID the agent container runs as, matching the
	// ownership of the workspace PVC's files across attempts.
	AgentUID = int64(61100)

	// DefaultTTLSecondsAfterFinished is how long a terminal Job is kept
	// around before Kubernetes garbage-collects it (spec.md §4.2).
	DefaultTTLSecondsAfterFinished = int32(600)

	taskFilesVolumeName = "task-files"
	taskFilesMountPath  = "/config"

	sshVolumeName       = "ssh-credentials"
	sshMountPath        = "/root/.ssh"
	managedSettingsPath = "/etc/claude-code/managed-settings.json"

	workspaceVolumeName = "workspace"
	workspaceMountPath  = "/workspace"

	// toolhubConfigPath is where the rendered tool-aggregator client
	// config lands inside the task-files ConfigMap mount (spec.md §6:
	// "a tool-aggregator client-configuration file at a path named by
	// an environment variable").
	toolhubConfigPath = taskFilesMountPath + "/toolhub-client.json"
)

// JobBuilder constructs the Job spec for a task's current attempt. It is a
// pure function over its inputs: the TaskType value, the per-task
// ConfigMap it will mount, and the controller-wide image/TTL defaults —
// grounded on the teacher's JobBuilder/buildAgentJob shape
// (internal/controller/job_builder.go), rewritten per spec.md §4.2's
// volume/mount model instead of the teacher's git-clone-init-container
// design.
type JobBuilder struct {
	Image                   string
	ImagePullPolicy         corev1.PullPolicy
	TTLSecondsAfterFinished int32
}

// NewJobBuilder returns a JobBuilder with the package defaults.
func NewJobBuilder() *JobBuilder {
	return &JobBuilder{
		Image:                   DefaultAgentImage,
		TTLSecondsAfterFinished: DefaultTTLSecondsAfterFinished,
	}
}

// labelsFor returns the label set applied to both the Job and its pod
// template, matching the teacher's app.kubernetes.io/* + <domain>/task
// convention.
func labelsFor(task agentrunv1alpha1.TaskType) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       "agentrun",
		"app.kubernetes.io/component":  "task",
		"app.kubernetes.io/managed-by": "agentrun-controller",
		"agentrun.io/task-kind":        task.TaskKind(),
		"agentrun.io/task":             task.GetName(),
	}
}

// envVarsFor builds the agent container's environment: non-secret task
// identifiers plus, for CodeRun, the tool-aggregator client config path
// (spec.md §4.2, §6), grounded on the teacher's conditional-append envVars
// construction in buildAgentJob.
func envVarsFor(task agentrunv1alpha1.TaskType) []corev1.EnvVar {
	envVars := []corev1.EnvVar{
		{Name: "AGENTRUN_TASK_KIND", Value: task.TaskKind()},
		{Name: "AGENTRUN_JOB_NAME", Value: task.JobName()},
		{Name: "AGENTRUN_MODEL", Value: task.GetModel()},
		{Name: "AGENTRUN_GITHUB_USER", Value: task.GetGitHubUser()},
	}

	if code, ok := task.(*agentrunv1alpha1.CodeRun); ok {
		envVars = append(envVars,
			corev1.EnvVar{Name: "AGENTRUN_SERVICE", Value: code.Spec.Service},
			corev1.EnvVar{Name: "AGENTRUN_TASK_ID", Value: fmt.Sprintf("%d", code.Spec.TaskID)},
			corev1.EnvVar{Name: "AGENTRUN_CONTEXT_VERSION", Value: fmt.Sprintf("%d", code.Spec.ContextVersion)},
			corev1.EnvVar{Name: "TOOLHUB_CONFIG", Value: toolhubConfigPath},
		)
	}

	return envVars
}

// Build constructs the Job for task's current attempt, mounting configMap
// (the rendered bundle materialized by BuildTaskConfigMap) and, for
// CodeRun, the per-service workspace PVC. It does not set an owner
// reference; the caller attaches that with controllerutil.SetControllerReference
// (spec.md §4.2, matching the teacher's call-site convention in
// task_controller.go).
func (b *JobBuilder) Build(task agentrunv1alpha1.TaskType, configMap *corev1.ConfigMap) (*batchv1.Job, error) {
	if configMap == nil {
		return nil, fmt.Errorf("job_builder: configMap is required")
	}

	backoffLimit := int32(0)
	ttl := b.TTLSecondsAfterFinished
	if ttl == 0 {
		ttl = DefaultTTLSecondsAfterFinished
	}

	volumes := []corev1.Volume{
		{
			Name: taskFilesVolumeName,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: configMap.Name},
				},
			},
		},
		{
			Name: sshVolumeName,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{
					SecretName: agentrunv1alpha1.SSHSecretName(task.GetGitHubUser()),
					Items: []corev1.KeyToPath{
						{Key: "ssh-privatekey", Path: "id_ed25519", Mode: ptr.To(int32(0o600))},
						{Key: "ssh-publickey", Path: "id_ed25519.pub", Mode: ptr.To(int32(0o644))},
					},
					DefaultMode: ptr.To(int32(0o600)),
				},
			},
		},
	}

	volumeMounts := []corev1.VolumeMount{
		{Name: taskFilesVolumeName, MountPath: taskFilesMountPath, ReadOnly: true},
		{
			Name:      taskFilesVolumeName,
			MountPath: managedSettingsPath,
			SubPath:   "managed-settings.json",
			ReadOnly:  true,
		},
		{Name: sshVolumeName, MountPath: sshMountPath},
	}

	if code, ok := task.(*agentrunv1alpha1.CodeRun); ok {
		volumes = append(volumes, corev1.Volume{
			Name: workspaceVolumeName,
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
					ClaimName: code.WorkspacePVCName(),
				},
			},
		})
		volumeMounts = append(volumeMounts, corev1.VolumeMount{
			Name:      workspaceVolumeName,
			MountPath: workspaceMountPath,
		})
	}

	mainContainer := corev1.Container{
		Name:            "agent",
		Image:           b.Image,
		ImagePullPolicy: b.ImagePullPolicy,
		Command:         []string{"sh", taskFilesMountPath + "/init.sh"},
		Env:             envVarsFor(task),
		VolumeMounts:    volumeMounts,
		SecurityContext: &corev1.SecurityContext{
			RunAsUser: ptr.To(AgentUID),
		},
	}

	labels := labelsFor(task)

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      task.JobName(),
			Namespace: task.GetNamespace(),
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            &backoffLimit,
			TTLSecondsAfterFinished: &ttl,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Volumes:       volumes,
					Containers:    []corev1.Container{mainContainer},
				},
			},
		},
	}

	return job, nil
}
