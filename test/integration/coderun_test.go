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

func setJobCondition(jobKey types.NamespacedName, condType batchv1.JobConditionType) {
	job := &batchv1.Job{}
	Expect(k8sClient.Get(ctx, jobKey, job)).To(Succeed())
	now := metav1.Now()
	job.Status.Conditions = append(job.Status.Conditions, batchv1.JobCondition{
		Type:               condType,
		Status:             corev1.ConditionTrue,
		LastTransitionTime: now,
	})
	if condType == batchv1.JobComplete {
		job.Status.CompletionTime = &now
	}
	job.Status.StartTime = &now
	Expect(k8sClient.Status().Update(ctx, job)).To(Succeed())
}

var _ = Describe("CodeRun Controller", func() {
	const (
		timeout  = time.Second * 10
		interval = time.Millisecond * 250
	)

	Context("When creating a fresh CodeRun", func() {
		It("adds a finalizer, creates a Job, and reports success once the Job completes", func() {
			By("creating a namespace")
			ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "test-coderun-happy"}}
			Expect(k8sClient.Create(ctx, ns)).To(Succeed())

			By("creating the SSH secret the agent container mounts")
			secret := &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{Name: "github-ssh-bot-a", Namespace: ns.Name},
				StringData: map[string]string{"ssh-privatekey": "test-key", "ssh-publickey": "test-key.pub"},
			}
			Expect(k8sClient.Create(ctx, secret)).To(Succeed())

			By("creating a CodeRun")
			task := &agentrunv1alpha1.CodeRun{
				ObjectMeta: metav1.ObjectMeta{Name: "trader-task7-attempt1", Namespace: ns.Name},
				Spec: agentrunv1alpha1.CodeRunSpec{
					RepositoryURL:         "git@github.com:org/trader.git",
					SourceBranch:          "main",
					Model:                 "claude-sonnet",
					GitHubUser:            "bot-a",
					TaskID:                7,
					Service:               "trader",
					PlatformRepositoryURL: "git@github.com:org/platform.git",
					PlatformBranch:        "main",
					ContextVersion:        1,
				},
			}
			Expect(k8sClient.Create(ctx, task)).To(Succeed())

			taskKey := types.NamespacedName{Name: task.Name, Namespace: ns.Name}

			By("verifying a finalizer is added")
			Eventually(func() []string {
				fetched := &agentrunv1alpha1.CodeRun{}
				if err := k8sClient.Get(ctx, taskKey, fetched); err != nil {
					return nil
				}
				return fetched.Finalizers
			}, timeout, interval).Should(ContainElement("agentrun.io/cleanup"))

			By("verifying the deterministic Job is created")
			jobKey := types.NamespacedName{Name: "trader-task7-attempt1", Namespace: ns.Name}
			Eventually(func() error {
				return k8sClient.Get(ctx, jobKey, &batchv1.Job{})
			}, timeout, interval).Should(Succeed())

			By("marking the Job complete")
			setJobCondition(jobKey, batchv1.JobComplete)

			By("verifying the CodeRun reports Succeeded")
			Eventually(func() agentrunv1alpha1.TaskPhase {
				fetched := &agentrunv1alpha1.CodeRun{}
				if err := k8sClient.Get(ctx, taskKey, fetched); err != nil {
					return ""
				}
				return fetched.Status.Phase
			}, timeout, interval).Should(Equal(agentrunv1alpha1.TaskPhaseSucceeded))

			By("verifying a TaskSucceeded event was recorded")
			Eventually(func() *corev1.Event {
				return findEvent(ns.Name, task.Name, "TaskSucceeded")
			}, timeout, interval).ShouldNot(BeNil())
		})
	})

	Context("When retrying a CodeRun via contextVersion", func() {
		It("creates a distinct Job for the new attempt", func() {
			By("creating a namespace")
			ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "test-coderun-retry"}}
			Expect(k8sClient.Create(ctx, ns)).To(Succeed())

			base := agentrunv1alpha1.CodeRunSpec{
				RepositoryURL:         "git@github.com:org/trader.git",
				SourceBranch:          "main",
				Model:                 "claude-sonnet",
				GitHubUser:            "bot-a",
				TaskID:                9,
				Service:               "trader",
				PlatformRepositoryURL: "git@github.com:org/platform.git",
				PlatformBranch:        "main",
			}

			attempt1 := base
			attempt1.ContextVersion = 1
			firstTask := &agentrunv1alpha1.CodeRun{
				ObjectMeta: metav1.ObjectMeta{Name: "trader-task9-attempt1", Namespace: ns.Name},
				Spec:       attempt1,
			}
			Expect(k8sClient.Create(ctx, firstTask)).To(Succeed())

			firstJobKey := types.NamespacedName{Name: "trader-task9-attempt1", Namespace: ns.Name}
			Eventually(func() error {
				return k8sClient.Get(ctx, firstJobKey, &batchv1.Job{})
			}, timeout, interval).Should(Succeed())

			attempt2 := base
			attempt2.ContextVersion = 2
			attempt2.PromptModification = "also add tests"
			secondTask := &agentrunv1alpha1.CodeRun{
				ObjectMeta: metav1.ObjectMeta{Name: "trader-task9-attempt2", Namespace: ns.Name},
				Spec:       attempt2,
			}
			Expect(k8sClient.Create(ctx, secondTask)).To(Succeed())

			secondJobKey := types.NamespacedName{Name: "trader-task9-attempt2", Namespace: ns.Name}
			Eventually(func() error {
				return k8sClient.Get(ctx, secondJobKey, &batchv1.Job{})
			}, timeout, interval).Should(Succeed())

			By("verifying the first attempt's Job is untouched by the retry")
			firstJob := &batchv1.Job{}
			Expect(k8sClient.Get(ctx, firstJobKey, firstJob)).To(Succeed())
		})
	})

	Context("When deleting a CodeRun with a running Job", func() {
		It("cleans up the Job and ConfigMap before removing the finalizer", func() {
			By("creating a namespace")
			ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "test-coderun-delete"}}
			Expect(k8sClient.Create(ctx, ns)).To(Succeed())

			task := &agentrunv1alpha1.CodeRun{
				ObjectMeta: metav1.ObjectMeta{Name: "trader-task11-attempt1", Namespace: ns.Name},
				Spec: agentrunv1alpha1.CodeRunSpec{
					RepositoryURL:         "git@github.com:org/trader.git",
					SourceBranch:          "main",
					Model:                 "claude-sonnet",
					GitHubUser:            "bot-a",
					TaskID:                11,
					Service:               "trader",
					PlatformRepositoryURL: "git@github.com:org/platform.git",
					PlatformBranch:        "main",
					ContextVersion:        1,
				},
			}
			Expect(k8sClient.Create(ctx, task)).To(Succeed())

			taskKey := types.NamespacedName{Name: task.Name, Namespace: ns.Name}
			jobKey := types.NamespacedName{Name: "trader-task11-attempt1", Namespace: ns.Name}

			Eventually(func() error {
				return k8sClient.Get(ctx, jobKey, &batchv1.Job{})
			}, timeout, interval).Should(Succeed())

			By("deleting the CodeRun while its Job is still running")
			fetched := &agentrunv1alpha1.CodeRun{}
			Expect(k8sClient.Get(ctx, taskKey, fetched)).To(Succeed())
			Expect(k8sClient.Delete(ctx, fetched)).To(Succeed())

			By("verifying the CodeRun is fully removed once cleanup finishes")
			Eventually(func() bool {
				err := k8sClient.Get(ctx, taskKey, &agentrunv1alpha1.CodeRun{})
				return err != nil
			}, timeout, interval).Should(BeTrue())

			By("verifying the Job was deleted")
			Eventually(func() bool {
				err := k8sClient.Get(ctx, jobKey, &batchv1.Job{})
				return err != nil
			}, timeout, interval).Should(BeTrue())
		})
	})
})
