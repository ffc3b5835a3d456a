package mesh

import (
	"sync"
	"time"
)

// DefaultRecentScans is how many scan results a StateTracker keeps.
const DefaultRecentScans = 10

// StateTracker tracks the most recent scan results for the HTTP and MQTT
// front ends.
type StateTracker struct {
	mu        sync.RWMutex
	recent    []*ScanResult
	limit     int
	processed int
	failed    int
	lastError string
	lastScan  time.Time
}

// NewStateTracker creates a tracker keeping DefaultRecentScans results.
func NewStateTracker() *StateTracker {
	return &StateTracker{limit: DefaultRecentScans}
}

// RecordScan stores a processed scan, evicting the oldest beyond the limit.
func (st *StateTracker) RecordScan(result *ScanResult) {
	if result == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	st.processed++
	st.lastScan = result.Timestamp
	st.recent = append([]*ScanResult{result}, st.recent...)
	if len(st.recent) > st.limit {
		st.recent = st.recent[:st.limit]
	}
}

// RecordFailure counts a scan that could not be processed.
func (st *StateTracker) RecordFailure(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.failed++
	if err != nil {
		st.lastError = err.Error()
	}
}

// Latest returns the most recent scan result, or nil.
func (st *StateTracker) Latest() *ScanResult {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if len(st.recent) == 0 {
		return nil
	}
	return st.recent[0]
}

// Recent returns the tracked results newest first.
func (st *StateTracker) Recent() []*ScanResult {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*ScanResult, len(st.recent))
	copy(out, st.recent)
	return out
}

// FindPlan returns a tracked plan by ID.
func (st *StateTracker) FindPlan(id string) (*FloorPlan, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, r := range st.recent {
		if r.FloorPlan != nil && r.FloorPlan.ID == id {
			return r.FloorPlan, true
		}
	}
	return nil, false
}

// TrackerStatus is a snapshot of tracker counters.
type TrackerStatus struct {
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	LastError string    `json:"lastError,omitempty"`
	LastScan  time.Time `json:"lastScan,omitempty"`
}

// Status returns the current counters.
func (st *StateTracker) Status() TrackerStatus {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return TrackerStatus{
		Processed: st.processed,
		Failed:    st.failed,
		LastError: st.lastError,
		LastScan:  st.lastScan,
	}
}
