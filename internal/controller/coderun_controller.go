package controller

import (
	"context"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
	"github.com/agentrun/agentrun/internal/render"
)

// CodeRunReconciler reconciles CodeRun objects, sharing reconcileCore with
// DocsRunReconciler (spec.md §4.6).
type CodeRunReconciler struct {
	client.Client
	JobBuilder          *JobBuilder
	TemplateStoreSource TemplateStoreSource
	Recorder            record.EventRecorder
	MaxConcurrent       int
}

// +kubebuilder:rbac:groups=agentrun.io,resources=coderuns,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=agentrun.io,resources=coderuns/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=agentrun.io,resources=coderuns/finalizers,verbs=update
// +kubebuilder:rbac:groups=batch,resources=jobs,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=persistentvolumeclaims,verbs=get;list;watch;create
// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch

// Reconcile implements the CodeRun control loop.
func (r *CodeRunReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var task agentrunv1alpha1.CodeRun
	if err := r.Get(ctx, req.NamespacedName, &task); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		logger.Error(err, "unable to fetch CodeRun")
		reconcileErrorsTotal.WithLabelValues("code").Inc()
		return ctrl.Result{}, err
	}

	store, err := r.TemplateStoreSource.Store(ctx, task.GetNamespace())
	if err != nil {
		logger.Error(err, "unable to build template engine")
		return ctrl.Result{}, err
	}

	core := &reconcileCore{Client: r.Client, JobBuilder: r.JobBuilder, Engine: render.NewEngine(store), Recorder: r.Recorder}
	return core.reconcile(ctx, &task)
}

// SetupWithManager wires the reconciler into the manager's watch set.
func (r *CodeRunReconciler) SetupWithManager(mgr ctrl.Manager) error {
	maxConcurrent := r.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return ctrl.NewControllerManagedBy(mgr).
		For(&agentrunv1alpha1.CodeRun{}).
		Owns(&batchv1.Job{}).
		Owns(&corev1.ConfigMap{}).
		WithOptions(ctrlOptions(maxConcurrent)).
		Complete(r)
}
