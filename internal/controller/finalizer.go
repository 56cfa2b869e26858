package controller

import (
	"context"
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

// FinalizerName is added to every DocsRun/CodeRun so deletion always runs
// cleanup exactly once (spec.md §4.5).
const FinalizerName = "agentrun.io/cleanup"

// EnsureFinalizer adds FinalizerName to task if absent, returning whether
// it made a change. Grounded on the finalizer-add branch of the teacher's
// Reconcile (task_controller.go).
func EnsureFinalizer(ctx context.Context, c client.Client, task client.Object) (bool, error) {
	if controllerutil.ContainsFinalizer(task, FinalizerName) {
		return false, nil
	}
	controllerutil.AddFinalizer(task, FinalizerName)
	if err := c.Update(ctx, task); err != nil {
		return false, fmt.Errorf("adding finalizer: %w", err)
	}
	return true, nil
}

// RunCleanupAndRemoveFinalizer deletes the owned Job and per-task
// ConfigMap (both best-effort, tolerating NotFound) and, once both are
// gone, removes the finalizer. It does not delete the workspace PVC
// (spec.md §4.5, §3.3). Grounded on the teacher's handleDeletion.
func RunCleanupAndRemoveFinalizer(ctx context.Context, c client.Client, task agentrunv1alpha1.TaskType) error {
	jobName := task.JobName()
	namespace := task.GetNamespace()

	job := &batchv1.Job{}
	if err := c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: jobName}, job); err == nil {
		propagation := client.PropagationPolicy("Background")
		if err := c.Delete(ctx, job, propagation); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("deleting job %s: %w", jobName, err)
		}
	} else if !apierrors.IsNotFound(err) {
		return fmt.Errorf("getting job %s: %w", jobName, err)
	}

	configMap := &corev1.ConfigMap{}
	configMapName := jobName + "-files"
	if err := c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: configMapName}, configMap); err == nil {
		if err := c.Delete(ctx, configMap); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("deleting configmap %s: %w", configMapName, err)
		}
	} else if !apierrors.IsNotFound(err) {
		return fmt.Errorf("getting configmap %s: %w", configMapName, err)
	}

	controllerutil.RemoveFinalizer(task, FinalizerName)
	if err := c.Update(ctx, task); err != nil {
		return fmt.Errorf("removing finalizer: %w", err)
	}
	return nil
}
