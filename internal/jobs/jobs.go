// Package jobs decouples snapshot extraction from the message path. Posting
// a message submits a job and moves on; a worker picks the job up and runs
// the extractor. Snapshotting is best-effort, so a full queue drops the job
// rather than blocking an interview turn.
package jobs

import "context"

// Kinds of background work.
const (
	KindSnapshot = "snapshot"
)

// Job is a unit of background work keyed to an interview.
type Job struct {
	Kind        string `json:"kind"`
	InterviewID string `json:"interviewId"`
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job)

// Queue accepts jobs for asynchronous processing.
type Queue interface {
	Submit(ctx context.Context, job Job) error
}
