package controller

import (
	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// JobState is the outcome of classifying a Job's observed state. It is the
// only input the reconciler's transition table consults (spec.md §4.3,
// §4.6).
type JobState string

const (
	// JobStateNotFound means no Job with the task's deterministic name
	// exists yet.
	JobStateNotFound JobState = "NotFound"
	// JobStateRunning means the Job exists and has reached neither the
	// Complete nor the Failed condition.
	JobStateRunning JobState = "Running"
	// JobStateCompleted means the Job's Complete condition is True.
	JobStateCompleted JobState = "Completed"
	// JobStateFailed means the Job's Failed condition is True.
	JobStateFailed JobState = "Failed"
)

// ClassifierError wraps an unexpected error encountered while fetching a
// Job, distinct from JobStateNotFound (a normal, expected outcome).
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string { return "job classifier: " + e.Err.Error() }

func (e *ClassifierError) Unwrap() error { return e.Err }

// ClassifyJob is a pure function deriving JobState from a fetched Job and
// the error from fetching it. It consults only batchv1.JobCondition
// (Complete/Failed) — never job.Status.{Active,Succeeded,Failed} counters
// and never pod-level state (spec.md §4.3). This is a deliberate REDESIGN
// relative to the teacher's updateStatus, which classifies off those
// counters and pod lookups; spec.md mandates conditions only.
func ClassifyJob(job *batchv1.Job, getErr error) (JobState, error) {
	if getErr != nil {
		if apierrors.IsNotFound(getErr) {
			return JobStateNotFound, nil
		}
		return "", &ClassifierError{Err: getErr}
	}

	for _, cond := range job.Status.Conditions {
		if cond.Status != "True" {
			continue
		}
		switch cond.Type {
		case batchv1.JobFailed:
			return JobStateFailed, nil
		case batchv1.JobComplete:
			return JobStateCompleted, nil
		}
	}

	return JobStateRunning, nil
}
