package queue

import (
	"time"

	"slidereel/internal/history"
	"slidereel/internal/pipeline"
)

// Status strings returned to clients.
const (
	StatusWaiting  = "Waiting..."
	StatusComplete = "Complete."
	StatusNotFound = "Not found"
	statusStarting = "Generation progress: 0%"
	errorPrefix    = "Error: "
)

// Request is an intake submission before it is assigned an id.
type Request struct {
	Archive        []byte
	FileName       string
	NotifyTo       string
	SkipUpload     bool
	LowRes         bool
	SuppressNotify bool
}

// Submission is a queued job. It is immutable once queued; the archive is
// released when the run finishes.
type Submission struct {
	ID             string
	Name           string
	NotifyTo       string
	Archive        []byte
	SkipUpload     bool
	LowRes         bool
	SuppressNotify bool
	CreatedAt      time.Time
}

func (s *Submission) job() pipeline.Job {
	return pipeline.Job{
		ID:         s.ID,
		Name:       s.Name,
		Archive:    s.Archive,
		SkipUpload: s.SkipUpload,
		LowRes:     s.LowRes,
		CreatedAt:  s.CreatedAt,
	}
}

func (s *Submission) historySubmission() history.Submission {
	return history.Submission{
		ID:             s.ID,
		SkipUpload:     s.SkipUpload,
		LowRes:         s.LowRes,
		SuppressNotify: s.SuppressNotify,
		To:             s.NotifyTo,
		Name:           s.Name,
		CreatedAt:      s.CreatedAt,
	}
}

// Entry is one row of StatusAll.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
}

// Snapshot is an immutable copy of the queue state.
type Snapshot struct {
	Busy    bool
	Current *Entry
	Pending []Entry
}

type failure struct {
	entry   Entry
	message string
}
