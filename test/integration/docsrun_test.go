package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

var _ = Describe("DocsRun Controller", func() {
	const (
		timeout  = time.Second * 10
		interval = time.Millisecond * 250
	)

	Context("When a DocsRun's Job fails", func() {
		It("reports Failed and preserves a single-attempt Job name", func() {
			By("creating a namespace")
			ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "test-docsrun-failed"}}
			Expect(k8sClient.Create(ctx, ns)).To(Succeed())

			secret := &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{Name: "github-ssh-bot-a", Namespace: ns.Name},
				StringData: map[string]string{"ssh-privatekey": "test-key", "ssh-publickey": "test-key.pub"},
			}
			Expect(k8sClient.Create(ctx, secret)).To(Succeed())

			task := &agentrunv1alpha1.DocsRun{
				ObjectMeta: metav1.ObjectMeta{Name: "bot-a-org-trader-docs", Namespace: ns.Name},
				Spec: agentrunv1alpha1.DocsRunSpec{
					RepositoryURL: "git@github.com:org/trader.git",
					Branch:        "main",
					Model:         "claude-sonnet",
					GitHubUser:    "bot-a",
				},
			}
			Expect(k8sClient.Create(ctx, task)).To(Succeed())

			taskKey := types.NamespacedName{Name: task.Name, Namespace: ns.Name}
			jobKey := types.NamespacedName{Name: "bot-a-org-trader-docs", Namespace: ns.Name}

			Eventually(func() error {
				return k8sClient.Get(ctx, jobKey, &batchv1.Job{})
			}, timeout, interval).Should(Succeed())

			setJobCondition(jobKey, batchv1.JobFailed)

			Eventually(func() agentrunv1alpha1.TaskPhase {
				fetched := &agentrunv1alpha1.DocsRun{}
				if err := k8sClient.Get(ctx, taskKey, fetched); err != nil {
					return ""
				}
				return fetched.Status.Phase
			}, timeout, interval).Should(Equal(agentrunv1alpha1.TaskPhaseFailed))

			Eventually(func() *corev1.Event {
				return findEvent(ns.Name, task.Name, "TaskFailed")
			}, timeout, interval).ShouldNot(BeNil())

			By("verifying the Job name has no attempt component, since DocsRun retries via a new resource")
			job := &batchv1.Job{}
			Expect(k8sClient.Get(ctx, jobKey, job)).To(Succeed())
		})
	})
})
