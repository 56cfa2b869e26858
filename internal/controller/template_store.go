package controller

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"

	"github.com/agentrun/agentrun/internal/render"
)

// TemplateStoreSource resolves the render.TemplateStore a reconciler
// should use for a given namespace. In production this fetches the
// operator's override ConfigMap (spec.md §6 "Template library interface")
// and layers it in front of the built-in defaults; tests can substitute a
// fixed store.
type TemplateStoreSource interface {
	Store(ctx context.Context, namespace string) (render.TemplateStore, error)
}

// ConfigMapTemplateStoreSource reads a named ConfigMap in each task
// resource's namespace as the template override layer.
type ConfigMapTemplateStoreSource struct {
	Client         client.Client
	ConfigMapName  string
	DefaultNotSet  bool // set true only by tests that want to skip the embedded defaults
}

// Store implements TemplateStoreSource.
func (s ConfigMapTemplateStoreSource) Store(ctx context.Context, namespace string) (render.TemplateStore, error) {
	var override *corev1.ConfigMap
	if s.ConfigMapName != "" {
		cm := &corev1.ConfigMap{}
		err := s.Client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: s.ConfigMapName}, cm)
		switch {
		case err == nil:
			override = cm
		case client.IgnoreNotFound(err) != nil:
			return nil, fmt.Errorf("fetching template override configmap %s/%s: %w", namespace, s.ConfigMapName, err)
		}
	}

	if s.DefaultNotSet {
		return render.ConfigMapTemplateStore{ConfigMap: override}, nil
	}

	return render.FallbackStore{
		render.ConfigMapTemplateStore{ConfigMap: override},
		render.DefaultStore(),
	}, nil
}

// ctrlOptions builds the controller.Options used by both reconcilers'
// SetupWithManager, reading MaxConcurrentReconciles from the caller
// (spec.md §9: "one per handful of controller cores").
func ctrlOptions(maxConcurrent int) controller.Options {
	return controller.Options{MaxConcurrentReconciles: maxConcurrent}
}
