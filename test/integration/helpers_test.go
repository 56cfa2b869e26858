package integration

import (
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// findEvent returns the first recorded Event matching involvedObjectName
// and reason, or nil if none is found yet. Grounded on the teacher's
// findEvent (test/integration/task_test.go).
func findEvent(namespace, involvedObjectName, reason string) *corev1.Event {
	eventList := &corev1.EventList{}
	if err := k8sClient.List(ctx, eventList, client.InNamespace(namespace)); err != nil {
		return nil
	}
	for i, event := range eventList.Items {
		if event.InvolvedObject.Name == involvedObjectName && event.Reason == reason {
			return &eventList.Items[i]
		}
	}
	return nil
}
