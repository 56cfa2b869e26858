package controller

import (
	"context"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
	"github.com/agentrun/agentrun/internal/render"
)

// reconcileCore implements the transition table of spec.md §4.6 against
// the TaskType interface, shared by DocsRunReconciler and CodeRunReconciler
// so the render -> ConfigMap -> PVC -> Job ordering invariant and the
// AwaitChange/RequeueAfter rules are written exactly once. ctrl.Result{}
// (the zero value) is this codebase's AwaitChange.
//
// Grounded on the teacher's TaskReconciler.Reconcile
// (task_controller.go), generalized over kind and rewritten to the
// Job-condition-only classifier (job_classifier.go) instead of the
// teacher's pod/counter-based updateStatus.
type reconcileCore struct {
	Client     client.Client
	JobBuilder *JobBuilder
	Engine     *render.Engine
	Recorder   record.EventRecorder
}

// recordEvent records a Kubernetes Event on task if a Recorder is
// configured, grounded on the teacher's TaskReconciler.recordEvent.
func (rc *reconcileCore) recordEvent(task agentrunv1alpha1.TaskType, eventType, reason, messageFmt string, args ...interface{}) {
	if rc.Recorder != nil {
		rc.Recorder.Eventf(task, eventType, reason, messageFmt, args...)
	}
}

func (rc *reconcileCore) reconcile(ctx context.Context, task agentrunv1alpha1.TaskType) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	if !task.GetDeletionTimestamp().IsZero() {
		if !controllerutil.ContainsFinalizer(task, FinalizerName) {
			return ctrl.Result{}, nil
		}
		if err := RunCleanupAndRemoveFinalizer(ctx, rc.Client, task); err != nil {
			logger.Error(err, "cleanup failed, will retry")
			reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
			return ctrl.Result{RequeueAfter: 5 * time.Second}, nil
		}
		return ctrl.Result{}, nil
	}

	if !controllerutil.ContainsFinalizer(task, FinalizerName) {
		if _, err := EnsureFinalizer(ctx, rc.Client, task); err != nil {
			logger.Error(err, "unable to add finalizer")
			reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
			return ctrl.Result{}, err
		}
		rc.recordEvent(task, corev1.EventTypeNormal, "FinalizerAdded", "Added cleanup finalizer")
		return ctrl.Result{Requeue: true}, nil
	}

	var job batchv1.Job
	getErr := rc.Client.Get(ctx, types.NamespacedName{Namespace: task.GetNamespace(), Name: task.JobName()}, &job)

	state, err := ClassifyJob(&job, getErr)
	if err != nil {
		logger.Error(err, "job classification failed")
		reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
		rc.recordEvent(task, corev1.EventTypeWarning, "JobClassifyFailed", "Failed to classify Job state: %v", err)
		return ctrl.Result{RequeueAfter: 10 * time.Second}, nil
	}

	switch state {
	case JobStateNotFound:
		return rc.createAttempt(ctx, task)
	case JobStateRunning:
		if err := WriteStatus(ctx, rc.Client, task, agentrunv1alpha1.TaskPhaseRunning, "job is running"); err != nil {
			logger.Error(err, "status write failed")
			reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
			return ctrl.Result{}, err
		}
		rc.recordEvent(task, corev1.EventTypeNormal, "TaskRunning", "Task started running")
		return ctrl.Result{RequeueAfter: 30 * time.Second}, nil
	case JobStateCompleted:
		if err := WriteStatus(ctx, rc.Client, task, agentrunv1alpha1.TaskPhaseSucceeded, "job completed"); err != nil {
			logger.Error(err, "status write failed")
			reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
			return ctrl.Result{}, err
		}
		taskCompletedTotal.WithLabelValues(task.TaskKind(), "succeeded").Inc()
		observeJobDuration(task.TaskKind(), "succeeded", &job)
		rc.recordEvent(task, corev1.EventTypeNormal, "TaskSucceeded", "Task completed successfully")
		return ctrl.Result{}, nil
	case JobStateFailed:
		if err := WriteStatus(ctx, rc.Client, task, agentrunv1alpha1.TaskPhaseFailed, "job failed"); err != nil {
			logger.Error(err, "status write failed")
			reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
			return ctrl.Result{}, err
		}
		taskCompletedTotal.WithLabelValues(task.TaskKind(), "failed").Inc()
		observeJobDuration(task.TaskKind(), "failed", &job)
		rc.recordEvent(task, corev1.EventTypeWarning, "TaskFailed", "Task failed")
		return ctrl.Result{}, nil
	default:
		return ctrl.Result{}, nil
	}
}

// createAttempt runs the mandatory render -> ConfigMap -> PVC -> Job
// ordering for a task whose current-attempt Job does not exist yet
// (spec.md §4.6).
func (rc *reconcileCore) createAttempt(ctx context.Context, task agentrunv1alpha1.TaskType) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	if err := WriteStatus(ctx, rc.Client, task, agentrunv1alpha1.TaskPhasePending, "creating job"); err != nil {
		logger.Error(err, "status write failed")
		reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
		return ctrl.Result{}, err
	}

	bundle, err := rc.Engine.Render(task)
	if err != nil {
		logger.Error(err, "render failed, reporting as failed task")
		rc.recordEvent(task, corev1.EventTypeWarning, "RenderFailed", "Failed to render templates: %v", err)
		if werr := WriteStatus(ctx, rc.Client, task, agentrunv1alpha1.TaskPhaseFailed, "render failed: "+err.Error()); werr != nil {
			return ctrl.Result{}, werr
		}
		return ctrl.Result{}, nil
	}

	configMap := BuildTaskConfigMap(task, bundle)
	if err := controllerutil.SetControllerReference(task, configMap, rc.Client.Scheme()); err != nil {
		return ctrl.Result{}, err
	}
	if err := upsertConfigMap(ctx, rc.Client, configMap); err != nil {
		logger.Error(err, "configmap upsert failed")
		reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
		return ctrl.Result{}, err
	}

	if code, ok := task.(*agentrunv1alpha1.CodeRun); ok {
		if err := EnsureWorkspacePVC(ctx, rc.Client, code.GetNamespace(), code.Spec.Service); err != nil {
			logger.Error(err, "workspace PVC ensure failed")
			reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
			return ctrl.Result{}, err
		}
	}

	job, err := rc.JobBuilder.Build(task, configMap)
	if err != nil {
		return ctrl.Result{}, err
	}
	if err := controllerutil.SetControllerReference(task, job, rc.Client.Scheme()); err != nil {
		return ctrl.Result{}, err
	}
	if err := rc.Client.Create(ctx, job); err != nil && !apierrors.IsAlreadyExists(err) {
		logger.Error(err, "job create failed")
		reconcileErrorsTotal.WithLabelValues(task.TaskKind()).Inc()
		return ctrl.Result{}, err
	}

	taskCreatedTotal.WithLabelValues(task.TaskKind()).Inc()
	rc.recordEvent(task, corev1.EventTypeNormal, "TaskCreated", "Created Job %s for task", job.Name)
	logger.Info("created job", "job", job.Name)
	return ctrl.Result{RequeueAfter: 30 * time.Second}, nil
}

// observeJobDuration records a Job's wall-clock run time once it has
// reached a terminal condition. Both StartTime and CompletionTime come
// from the Job status the classifier already fetched; a Job without a
// recorded StartTime (rare, e.g. a crash before the controller observed
// it running) is skipped rather than guessed at.
func observeJobDuration(kind, phase string, job *batchv1.Job) {
	if job.Status.StartTime == nil || job.Status.CompletionTime == nil {
		return
	}
	duration := job.Status.CompletionTime.Sub(job.Status.StartTime.Time)
	taskDurationSeconds.WithLabelValues(kind, phase).Observe(duration.Seconds())
}

// upsertConfigMap creates configMap, or updates it in place if one with
// the same deterministic name already exists (spec.md §4.2).
func upsertConfigMap(ctx context.Context, c client.Client, configMap *corev1.ConfigMap) error {
	existing := &corev1.ConfigMap{}
	key := types.NamespacedName{Namespace: configMap.Namespace, Name: configMap.Name}

	err := c.Get(ctx, key, existing)
	switch {
	case apierrors.IsNotFound(err):
		return c.Create(ctx, configMap)
	case err != nil:
		return err
	default:
		existing.Data = configMap.Data
		existing.Labels = configMap.Labels
		existing.OwnerReferences = configMap.OwnerReferences
		return c.Update(ctx, existing)
	}
}
