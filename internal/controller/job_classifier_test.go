package controller

import (
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func TestClassifyJob(t *testing.T) {
	notFoundErr := apierrors.NewNotFound(schema.GroupResource{Resource: "jobs"}, "missing")

	cases := []struct {
		name    string
		job     *batchv1.Job
		getErr  error
		want    JobState
		wantErr bool
	}{
		{
			name:   "not found",
			job:    nil,
			getErr: notFoundErr,
			want:   JobStateNotFound,
		},
		{
			name:   "running with no conditions",
			job:    &batchv1.Job{},
			getErr: nil,
			want:   JobStateRunning,
		},
		{
			name: "completed",
			job: &batchv1.Job{Status: batchv1.JobStatus{Conditions: []batchv1.JobCondition{
				{Type: batchv1.JobComplete, Status: "True"},
			}}},
			getErr: nil,
			want:   JobStateCompleted,
		},
		{
			name: "failed",
			job: &batchv1.Job{Status: batchv1.JobStatus{Conditions: []batchv1.JobCondition{
				{Type: batchv1.JobFailed, Status: "True"},
			}}},
			getErr: nil,
			want:   JobStateFailed,
		},
		{
			name: "complete condition present but false",
			job: &batchv1.Job{Status: batchv1.JobStatus{Conditions: []batchv1.JobCondition{
				{Type: batchv1.JobComplete, Status: "False"},
			}}},
			getErr: nil,
			want:   JobStateRunning,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ClassifyJob(tc.job, tc.getErr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected state %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifyJob_WrapsUnexpectedError(t *testing.T) {
	underlying := errTest("connection refused")
	_, err := ClassifyJob(nil, underlying)
	if err == nil {
		t.Fatalf("expected error")
	}
	var classifierErr *ClassifierError
	if ce, ok := err.(*ClassifierError); ok {
		classifierErr = ce
	} else {
		t.Fatalf("expected *ClassifierError, got %T", err)
	}
	if classifierErr.Unwrap() != underlying {
		t.Errorf("expected Unwrap() to return the underlying error")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
