package controller

import (
	"context"
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

func TestEnsureFinalizer_AddsWhenAbsent(t *testing.T) {
	task := &agentrunv1alpha1.CodeRun{ObjectMeta: metav1.ObjectMeta{Name: "t", Namespace: "ns"}}
	c := fake.NewClientBuilder().WithScheme(newTestScheme(t)).WithObjects(task).Build()

	changed, err := EnsureFinalizer(context.Background(), c, task)
	if err != nil {
		t.Fatalf("EnsureFinalizer returned error: %v", err)
	}
	if !changed {
		t.Errorf("expected changed=true when finalizer was absent")
	}
	if !controllerutil.ContainsFinalizer(task, FinalizerName) {
		t.Errorf("expected finalizer to be present on task")
	}
}

func TestEnsureFinalizer_NoopWhenPresent(t *testing.T) {
	task := &agentrunv1alpha1.CodeRun{
		ObjectMeta: metav1.ObjectMeta{Name: "t", Namespace: "ns", Finalizers: []string{FinalizerName}},
	}
	c := fake.NewClientBuilder().WithScheme(newTestScheme(t)).WithObjects(task).Build()

	changed, err := EnsureFinalizer(context.Background(), c, task)
	if err != nil {
		t.Fatalf("EnsureFinalizer returned error: %v", err)
	}
	if changed {
		t.Errorf("expected changed=false when finalizer was already present")
	}
}

func TestRunCleanupAndRemoveFinalizer_DeletesJobAndConfigMapAndRemovesFinalizer(t *testing.T) {
	task := &agentrunv1alpha1.CodeRun{
		ObjectMeta: metav1.ObjectMeta{Name: "trader-task7-attempt1", Namespace: "ns", Finalizers: []string{FinalizerName}},
		Spec:       agentrunv1alpha1.CodeRunSpec{Service: "trader", TaskID: 7, ContextVersion: 1},
	}
	job := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: task.JobName(), Namespace: "ns"}}
	configMap := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: task.JobName() + "-files", Namespace: "ns"}}

	scheme := newTestScheme(t)
	if err := batchv1.AddToScheme(scheme); err != nil {
		t.Fatalf("adding batchv1 to scheme: %v", err)
	}
	if err := corev1.AddToScheme(scheme); err != nil {
		t.Fatalf("adding corev1 to scheme: %v", err)
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(task, job, configMap).Build()

	if err := RunCleanupAndRemoveFinalizer(context.Background(), c, task); err != nil {
		t.Fatalf("RunCleanupAndRemoveFinalizer returned error: %v", err)
	}

	var gotJob batchv1.Job
	err := c.Get(context.Background(), types.NamespacedName{Namespace: "ns", Name: task.JobName()}, &gotJob)
	if !apierrors.IsNotFound(err) {
		t.Errorf("expected job to be deleted, got err=%v", err)
	}

	var gotConfigMap corev1.ConfigMap
	err = c.Get(context.Background(), types.NamespacedName{Namespace: "ns", Name: task.JobName() + "-files"}, &gotConfigMap)
	if !apierrors.IsNotFound(err) {
		t.Errorf("expected configmap to be deleted, got err=%v", err)
	}

	var gotTask agentrunv1alpha1.CodeRun
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: "ns", Name: task.Name}, &gotTask); err != nil {
		t.Fatalf("fetching task: %v", err)
	}
	if controllerutil.ContainsFinalizer(&gotTask, FinalizerName) {
		t.Errorf("expected finalizer to be removed")
	}
}

func TestRunCleanupAndRemoveFinalizer_ToleratesMissingJobAndConfigMap(t *testing.T) {
	task := &agentrunv1alpha1.CodeRun{
		ObjectMeta: metav1.ObjectMeta{Name: "trader-task7-attempt1", Namespace: "ns", Finalizers: []string{FinalizerName}},
		Spec:       agentrunv1alpha1.CodeRunSpec{Service: "trader", TaskID: 7, ContextVersion: 1},
	}

	scheme := newTestScheme(t)
	if err := batchv1.AddToScheme(scheme); err != nil {
		t.Fatalf("adding batchv1 to scheme: %v", err)
	}
	if err := corev1.AddToScheme(scheme); err != nil {
		t.Fatalf("adding corev1 to scheme: %v", err)
	}
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(task).Build()

	if err := RunCleanupAndRemoveFinalizer(context.Background(), c, task); err != nil {
		t.Fatalf("expected cleanup to tolerate missing job/configmap, got error: %v", err)
	}
}
