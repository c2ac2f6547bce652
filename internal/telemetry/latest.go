package telemetry

import (
	"sort"
	"sync"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// LatestStore holds exactly one current reading per sensor identifier.
// Upserts and reads may run concurrently; readers always observe a
// whole reading, never a partially written one.
type LatestStore struct {
	mu      sync.RWMutex
	current map[string]latestEntry
	nextSeq uint64
}

type latestEntry struct {
	reading models.Reading
	seq     uint64 // insertion order, breaks timestamp ties
}

// NewLatestStore creates an empty latest-value store.
func NewLatestStore() *LatestStore {
	return &LatestStore{
		current: make(map[string]latestEntry),
	}
}

// Upsert replaces the current reading for the reading's sensor id.
func (s *LatestStore) Upsert(reading models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	s.current[reading.SensorID] = latestEntry{reading: reading, seq: s.nextSeq}
}

// Get returns the current reading for a sensor id, if any.
func (s *LatestStore) Get(sensorID string) (models.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.current[sensorID]
	return entry.reading, ok
}

// GetAll returns the current reading for every known sensor, most
// recent first. Sensor identifiers are unique in the result.
func (s *LatestStore) GetAll() []models.Reading {
	s.mu.RLock()
	entries := make([]latestEntry, 0, len(s.current))
	for _, entry := range s.current {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	sortEntries(entries)

	readings := make([]models.Reading, len(entries))
	for i, entry := range entries {
		readings[i] = entry.reading
	}
	return readings
}

// GetByKind returns current readings of one sensor kind, most recent first.
func (s *LatestStore) GetByKind(kind models.SensorKind) []models.Reading {
	s.mu.RLock()
	var entries []latestEntry
	for _, entry := range s.current {
		if entry.reading.Kind == kind {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	sortEntries(entries)

	readings := make([]models.Reading, len(entries))
	for i, entry := range entries {
		readings[i] = entry.reading
	}
	return readings
}

// Len returns the number of sensors with a current reading.
func (s *LatestStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// sortEntries orders by creation timestamp descending, insertion order
// descending as the tie-breaker.
func sortEntries(entries []latestEntry) {
	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].reading.CreatedAt, entries[j].reading.CreatedAt
		if ti.Equal(tj) {
			return entries[i].seq > entries[j].seq
		}
		return ti.After(tj)
	})
}
