package history

import (
	"slices"
	"time"
)

// DefaultRetention is how long completed jobs stay queryable.
const DefaultRetention = 72 * time.Hour

// Submission is the persisted subset of a queued job; the archive payload is
// never stored.
type Submission struct {
	ID             string    `json:"id"`
	SkipUpload     bool      `json:"skipS3"`
	LowRes         bool      `json:"is720p"`
	SuppressNotify bool      `json:"noEmail"`
	To             string    `json:"to"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Record is one completed job.
type Record struct {
	VideoGeneration Submission `json:"videoGeneration"`
	Images          []string   `json:"images"`
	Audios          []string   `json:"audios"`
	FullVideoPath   string     `json:"fullVideoPath"`
	ShortVideoPath  string     `json:"shortVideoPath"`
	TotalTime       float64    `json:"totalTime"`
	Uploaded        bool       `json:"uploaded"`
	UploadError     string     `json:"uploadError,omitempty"`
	Resolution      string     `json:"resolution,omitempty"`
}

// ID returns the job identifier.
func (r Record) ID() string {
	return r.VideoGeneration.ID
}

// Expired reports whether the record is older than retention at now.
func (r Record) Expired(now time.Time, retention time.Duration) bool {
	return now.Sub(r.VideoGeneration.CreatedAt) > retention
}

// Prune returns the records still within retention, preserving order.
func Prune(records []Record, now time.Time, retention time.Duration) []Record {
	if retention <= 0 {
		return records
	}
	return slices.DeleteFunc(slices.Clone(records), func(r Record) bool {
		return r.Expired(now, retention)
	})
}

// Find returns the record with id, if present.
func Find(records []Record, id string) (Record, bool) {
	for _, r := range records {
		if r.ID() == id {
			return r, true
		}
	}
	return Record{}, false
}
