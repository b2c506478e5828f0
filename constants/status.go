package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"    // waiting for a worker
	JobStatusRunning   JobStatus = "RUNNING"   // in progress
	JobStatusSucceeded JobStatus = "SUCCEEDED" // text extracted
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)
