package client

import (
	"context"
	"fmt"
)

// FillJobsClient submits and polls asynchronous AtomFill jobs: filling a
// crystal lattice region can take long enough (large motif counts, large
// bounding regions) that the host UI dispatches it to a worker and polls
// for completion rather than waiting on the HTTP request.
type FillJobsClient struct {
	client *Client
}

// FillJobStatus enumerates the lifecycle of a submitted fill job.
type FillJobStatus string

const (
	FillJobPending   FillJobStatus = "pending"
	FillJobRunning   FillJobStatus = "running"
	FillJobSucceeded FillJobStatus = "succeeded"
	FillJobFailed    FillJobStatus = "failed"
)

// SubmitFillJobRequest identifies the AtomFill node and network to
// evaluate asynchronously.
type SubmitFillJobRequest struct {
	NetworkName string `json:"network_name"`
	NodeID      uint64 `json:"node_id"`
}

// FillJob is a submitted or polled fill job's state. ResultURI, when
// present, is a content-addressed MinIO object key for the resulting XYZ
// structure.
type FillJob struct {
	ID           string        `json:"id"`
	Status       FillJobStatus `json:"status"`
	ResultURI    string        `json:"result_uri,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Submit enqueues an AtomFill evaluation and returns immediately with the
// job's ID in pending state.
func (f *FillJobsClient) Submit(ctx context.Context, req SubmitFillJobRequest) (*FillJob, error) {
	var job FillJob
	if err := f.client.post(ctx, "/fill-jobs", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Get polls a fill job's current status by ID.
func (f *FillJobsClient) Get(ctx context.Context, jobID string) (*FillJob, error) {
	var job FillJob
	path := fmt.Sprintf("/fill-jobs/%s", jobID)
	if err := f.client.get(ctx, path, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
