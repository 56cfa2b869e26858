package controller

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
	"github.com/agentrun/agentrun/internal/render"
)

// BuildTaskConfigMap materializes a rendered Bundle as the per-task
// ConfigMap, named deterministically from the task's Job name (spec.md
// §4.2: "Named deterministically from the Job name"). Pure function, no
// side effects — grounded on the teacher's small, typed Build* functions.
func BuildTaskConfigMap(task agentrunv1alpha1.TaskType, bundle render.Bundle) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      task.JobName() + "-files",
			Namespace: task.GetNamespace(),
			Labels:    labelsFor(task),
		},
		Data: bundle,
	}
}
