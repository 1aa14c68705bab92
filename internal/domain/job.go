package domain

// JobStatus enumerates the job state machine.
type JobStatus string

const (
	StatusIdle         JobStatus = "IDLE"
	StatusInitializing JobStatus = "INITIALIZING"
	StatusCrawling     JobStatus = "CRAWLING"
	StatusAnalyzing    JobStatus = "ANALYZING"
	StatusComplete     JobStatus = "COMPLETE"
	StatusError        JobStatus = "ERROR"
)

// Processing reports whether the job is between start and a terminal state.
func (s JobStatus) Processing() bool {
	switch s {
	case StatusInitializing, StatusCrawling, StatusAnalyzing:
		return true
	}
	return false
}

// Terminal reports whether no automatic transition leaves s.
func (s JobStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

var transitions = map[JobStatus][]JobStatus{
	StatusIdle:         {StatusInitializing},
	StatusInitializing: {StatusCrawling, StatusAnalyzing, StatusIdle, StatusError},
	StatusCrawling:     {StatusAnalyzing, StatusIdle, StatusError},
	StatusAnalyzing:    {StatusComplete, StatusIdle, StatusError},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// JobSnapshot is a consistent read of a job's observable state.
type JobSnapshot struct {
	ID       string    `json:"job_id,omitempty"`
	State    JobStatus `json:"state"`
	Progress float64   `json:"progress"`
}
