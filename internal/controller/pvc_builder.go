package controller

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

// DefaultWorkspaceStorageSize is the capacity requested for a new
// per-service workspace volume.
const DefaultWorkspaceStorageSize = "10Gi"

// BuildWorkspacePVC returns the desired-state PVC for service, named
// deterministically ("workspace-<service>", spec.md §3.3). It carries no
// owner reference: a workspace PVC outlives any single task resource and
// is never deleted by the reconciler (spec.md §4.5, §5).
func BuildWorkspacePVC(namespace, service string) *corev1.PersistentVolumeClaim {
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      agentrunv1alpha1.WorkspacePVCName(service),
			Namespace: namespace,
			Labels: map[string]string{
				"app.kubernetes.io/name":       "agentrun",
				"app.kubernetes.io/component":  "workspace",
				"app.kubernetes.io/managed-by": "agentrun-controller",
				"agentrun.io/service":          service,
			},
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(DefaultWorkspaceStorageSize),
				},
			},
		},
	}
}

// EnsureWorkspacePVC creates the per-service workspace PVC if it does not
// already exist, and otherwise does nothing — it never updates or deletes
// an existing PVC (spec.md §5's shared-resource policy). Grounded on the
// teacher's ensureSpawnerRBAC get-or-create-if-absent idiom
// (taskspawner_controller.go).
func EnsureWorkspacePVC(ctx context.Context, c client.Client, namespace, service string) error {
	existing := &corev1.PersistentVolumeClaim{}
	name := agentrunv1alpha1.WorkspacePVCName(service)

	err := c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, existing)
	if err == nil {
		return nil
	}
	if !errors.IsNotFound(err) {
		return fmt.Errorf("getting workspace PVC %s: %w", name, err)
	}

	pvc := BuildWorkspacePVC(namespace, service)
	if err := c.Create(ctx, pvc); err != nil && !errors.IsAlreadyExists(err) {
		return fmt.Errorf("creating workspace PVC %s: %w", name, err)
	}
	return nil
}
