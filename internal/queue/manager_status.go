package queue

import (
	"context"
	"sort"

	"github.com/jellydator/ttlcache/v3"

	"slidereel/internal/history"
	"slidereel/internal/logging"
)

// IsBusy reports whether a job is currently running.
func (m *Manager) IsBusy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// Snapshot copies the in-memory queue state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{Busy: m.current != nil}
	if m.current != nil {
		entry := entryFor(m.current, m.live)
		snap.Current = &entry
	}
	snap.Pending = make([]Entry, 0, len(m.pending))
	for _, sub := range m.pending {
		snap.Pending = append(snap.Pending, entryFor(sub, StatusWaiting))
	}
	return snap
}

// Status resolves the status string for id. Lookup order is current job,
// pending FIFO, recent failures, then history.
func (m *Manager) Status(ctx context.Context, id string) string {
	snap := m.Snapshot()
	if snap.Current != nil && snap.Current.ID == id {
		return snap.Current.Status
	}
	for _, entry := range snap.Pending {
		if entry.ID == id {
			return StatusWaiting
		}
	}
	if item := m.failures.Get(id, ttlcache.WithDisableTouchOnHit[string, failure]()); item != nil {
		return errorPrefix + item.Value().message
	}
	records := m.readHistory(ctx)
	if _, ok := history.Find(records, id); ok {
		return StatusComplete
	}
	return StatusNotFound
}

// StatusAll lists the current job, pending jobs, recent failures and
// history. The current job appears only once.
func (m *Manager) StatusAll(ctx context.Context) []Entry {
	snap := m.Snapshot()
	currentID := ""
	entries := make([]Entry, 0, len(snap.Pending)+1)
	if snap.Current != nil {
		currentID = snap.Current.ID
		entries = append(entries, *snap.Current)
	}
	for _, entry := range snap.Pending {
		if entry.ID != currentID {
			entries = append(entries, entry)
		}
	}
	entries = append(entries, m.failedEntries(currentID)...)
	for _, record := range m.readHistory(ctx) {
		if record.ID() == currentID {
			continue
		}
		entries = append(entries, Entry{
			ID:        record.ID(),
			CreatedAt: record.VideoGeneration.CreatedAt,
			Name:      record.VideoGeneration.Name,
			Status:    StatusComplete,
		})
	}
	return entries
}

func (m *Manager) readHistory(ctx context.Context) []history.Record {
	if m.history == nil {
		return nil
	}
	records, err := m.history.Read(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "history read failed", "history_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path is readable"),
			logging.String(logging.FieldImpact, "completed jobs report Not found"),
		)
		return nil
	}
	return records
}

// failedEntries returns recent failures, newest first.
func (m *Manager) failedEntries(skipID string) []Entry {
	items := m.failures.Items()
	out := make([]Entry, 0, len(items))
	for id, item := range items {
		if id == skipID {
			continue
		}
		f := item.Value()
		entry := f.entry
		entry.Status = errorPrefix + f.message
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func entryFor(sub *Submission, status string) Entry {
	return Entry{ID: sub.ID, CreatedAt: sub.CreatedAt, Name: sub.Name, Status: status}
}
