package api

import (
	"slidereel/internal/deps"
	"slidereel/internal/preflight"
	"slidereel/internal/queue"
)

// FromEntry converts a queue entry to its wire form.
func FromEntry(e queue.Entry) JobStatus {
	return JobStatus{ID: e.ID, CreatedAt: e.CreatedAt, Name: e.Name, Status: e.Status}
}

// FromEntries converts a status listing. A nil input yields an empty slice so
// the JSON payload is always an array.
func FromEntries(entries []queue.Entry) []JobStatus {
	out := make([]JobStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromEntry(e))
	}
	return out
}

// FromDependencies converts binary availability results.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail}
	}
	return out
}
