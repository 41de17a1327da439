package interfaces

import "errors"

// ErrNotFound is returned by storage Get/GetBy* methods when no row matches.
// Handlers map it to a 404 apierr.NotFound without needing to import the
// sqlite package directly.
var ErrNotFound = errors.New("not found")

// ErrHasReferences is returned by JobStorage.Delete when the job is still
// referenced by a live SavedJob, blocking the cascade per spec's distinct
// "has-references" deletion error.
var ErrHasReferences = errors.New("job has live references and cannot be deleted")

// ErrRetentionWindowActive is returned by JobStorage.Delete when the
// retention sweep requests deletion of a job that has not yet aged past the
// retention freshness window.
var ErrRetentionWindowActive = errors.New("job has not yet aged past the retention freshness window")

// ErrNotPermitted is returned by JobStorage.Delete when the requester is
// neither the retention sweep nor the job's own submitter.
var ErrNotPermitted = errors.New("requester is not permitted to delete this job")

// SystemRequester identifies the retention sweep as the caller of
// JobStorage.Delete, distinguishing it from a user deleting their own
// submitted job.
const SystemRequester = "system:retention"
