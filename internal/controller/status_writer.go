package controller

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

// WriteStatus patches a task's status to phase/message, short-circuiting
// if both are already equal to the task's current status (spec.md §4.4:
// conditional writes to avoid reconcile-on-write loops). Grounded on the
// teacher's setWaitingPhase equality check, generalized over TaskType and
// wrapped in retry.RetryOnConflict per the teacher's createJob/updateStatus
// optimistic-concurrency idiom.
func WriteStatus(ctx context.Context, c client.Client, task agentrunv1alpha1.TaskType, phase agentrunv1alpha1.TaskPhase, message string) error {
	status := task.GetStatus()
	if status.Phase == phase && status.Message == message {
		return nil
	}

	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		current := task.DeepCopyObject().(agentrunv1alpha1.TaskType)
		if err := c.Get(ctx, client.ObjectKeyFromObject(task), current); err != nil {
			return err
		}

		currentStatus := current.GetStatus()
		if currentStatus.Phase == phase && currentStatus.Message == message {
			return nil
		}

		base := current.DeepCopyObject().(client.Object)
		currentStatus.Phase = phase
		currentStatus.Message = message
		now := metav1.Now()
		currentStatus.LastUpdate = &now
		mergeCondition(currentStatus, conditionFor(phase, message))

		if err := c.Status().Patch(ctx, current, client.MergeFromWithOptions(base, client.MergeFromWithOptimisticLock{})); err != nil {
			return err
		}

		task.GetStatus().Phase = phase
		task.GetStatus().Message = message
		task.GetStatus().LastUpdate = currentStatus.LastUpdate
		return nil
	})
}

// conditionFor derives the "Ready"-style condition record for phase,
// keyed by a stable Type so mergeCondition can replace it in place.
func conditionFor(phase agentrunv1alpha1.TaskPhase, message string) agentrunv1alpha1.Condition {
	status := metav1.ConditionUnknown
	switch phase {
	case agentrunv1alpha1.TaskPhaseRunning, agentrunv1alpha1.TaskPhaseSucceeded:
		status = metav1.ConditionTrue
	case agentrunv1alpha1.TaskPhaseFailed:
		status = metav1.ConditionFalse
	}

	return agentrunv1alpha1.Condition{
		Type:               "Ready",
		Status:             status,
		Reason:             string(phase),
		Message:            message,
		LastTransitionTime: metav1.Now(),
	}
}

// mergeCondition replaces the condition with the same Type in status, or
// appends it, preserving every other condition (including any the agent
// itself may have written through the status subresource).
func mergeCondition(status *agentrunv1alpha1.TaskStatus, next agentrunv1alpha1.Condition) {
	for i, c := range status.Conditions {
		if c.Type == next.Type {
			status.Conditions[i] = next
			return
		}
	}
	status.Conditions = append(status.Conditions, next)
}
