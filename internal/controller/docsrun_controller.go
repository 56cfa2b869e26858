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

// DocsRunReconciler reconciles DocsRun objects. It embeds reconcileCore so
// the transition table of spec.md §4.6 is written exactly once, shared
// with CodeRunReconciler. Grounded on the teacher's one-reconciler-per-CRD
// layout (TaskReconciler/TaskSpawnerReconciler).
type DocsRunReconciler struct {
	client.Client
	JobBuilder          *JobBuilder
	TemplateStoreSource TemplateStoreSource
	Recorder            record.EventRecorder
	MaxConcurrent       int
}

// +kubebuilder:rbac:groups=agentrun.io,resources=docsruns,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=agentrun.io,resources=docsruns/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=agentrun.io,resources=docsruns/finalizers,verbs=update
// +kubebuilder:rbac:groups=batch,resources=jobs,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch

// Reconcile implements the DocsRun control loop.
func (r *DocsRunReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var task agentrunv1alpha1.DocsRun
	if err := r.Get(ctx, req.NamespacedName, &task); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		logger.Error(err, "unable to fetch DocsRun")
		reconcileErrorsTotal.WithLabelValues("docs").Inc()
		return ctrl.Result{}, err
	}

	engine, err := r.buildEngine(ctx, &task)
	if err != nil {
		logger.Error(err, "unable to build template engine")
		return ctrl.Result{}, err
	}

	core := &reconcileCore{Client: r.Client, JobBuilder: r.JobBuilder, Engine: engine, Recorder: r.Recorder}
	return core.reconcile(ctx, &task)
}

func (r *DocsRunReconciler) buildEngine(ctx context.Context, task *agentrunv1alpha1.DocsRun) (*render.Engine, error) {
	store, err := r.TemplateStoreSource.Store(ctx, task.GetNamespace())
	if err != nil {
		return nil, err
	}
	return render.NewEngine(store), nil
}

// SetupWithManager wires the reconciler into the manager's watch set,
// grounded on the teacher's TaskReconciler.SetupWithManager.
func (r *DocsRunReconciler) SetupWithManager(mgr ctrl.Manager) error {
	maxConcurrent := r.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return ctrl.NewControllerManagedBy(mgr).
		For(&agentrunv1alpha1.DocsRun{}).
		Owns(&batchv1.Job{}).
		Owns(&corev1.ConfigMap{}).
		WithOptions(ctrlOptions(maxConcurrent)).
		Complete(r)
}
