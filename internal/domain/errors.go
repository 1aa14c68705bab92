package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the crawler, analyzer and job orchestrator.
var (
	ErrInvalidConfig    = errors.New("invalid job configuration")
	ErrInvalidSelection = errors.New("invalid selection expression")
	ErrDiscovery        = errors.New("url discovery failed")
	ErrFetch            = errors.New("fetch failed")
	ErrExtract          = errors.New("extract failed")
	ErrEmptyCorpus      = errors.New("empty corpus")
	ErrEmptyVocabulary  = errors.New("empty vocabulary after filtering")
	ErrStopped          = errors.New("stopped")
	ErrJobRunning       = errors.New("a job is still processing")
	ErrNoJob            = errors.New("no job has been started")
	ErrResultPending    = errors.New("result is not ready")
)

// ErrNoURLs is the discovery failure raised when a search yields nothing.
var ErrNoURLs = fmt.Errorf("%w: no URLs found", ErrDiscovery)

// IsCorpusError reports whether err is fatal because the corpus cannot be modelled.
func IsCorpusError(err error) bool {
	return errors.Is(err, ErrEmptyCorpus) || errors.Is(err, ErrEmptyVocabulary)
}

// JobError is the terminal failure of a job: the triggering error plus a
// diagnostic trace kept apart from the plain message.
type JobError struct {
	Stage string
	Err   error
	Trace string
}

func (e *JobError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	return e.Stage + ": " + e.Err.Error()
}

func (e *JobError) Unwrap() error {
	return e.Err
}
