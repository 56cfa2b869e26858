package render

import corev1 "k8s.io/api/core/v1"

// TemplateStore is the read-only lookup surface the Engine renders from.
// In production it is backed by the ConfigMap an operator mounts over the
// controller's template overrides; in tests it is a plain map.
type TemplateStore interface {
	Get(key string) (string, bool)
}

// MapTemplateStore is a TemplateStore backed by an in-memory map, used in
// tests and as the building block for the embedded default store.
type MapTemplateStore map[string]string

// Get implements TemplateStore.
func (m MapTemplateStore) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// ConfigMapTemplateStore adapts an already-fetched ConfigMap's Data to a
// TemplateStore, avoiding any API call from within the rendering path.
type ConfigMapTemplateStore struct {
	ConfigMap *corev1.ConfigMap
}

// Get implements TemplateStore.
func (s ConfigMapTemplateStore) Get(key string) (string, bool) {
	if s.ConfigMap == nil {
		return "", false
	}
	v, ok := s.ConfigMap.Data[key]
	return v, ok
}

// FallbackStore tries each store in order, returning the first hit. It is
// how an operator's override ConfigMap is layered over the built-in
// defaults (spec.md §4.1: "a missing override key falls back to the
// shipped default template").
type FallbackStore []TemplateStore

// Get implements TemplateStore.
func (f FallbackStore) Get(key string) (string, bool) {
	for _, s := range f {
		if s == nil {
			continue
		}
		if v, ok := s.Get(key); ok {
			return v, true
		}
	}
	return "", false
}
