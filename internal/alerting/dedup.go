// Package alerting enforces the one-active-alert-per-sensor invariant.
package alerting

import (
	"context"
	"fmt"
	"sync"

	"github.com/good-yellow-bee/corewatch/internal/metrics"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
)

// Manager deduplicates alerts: a threshold breach only raises a new
// alert when the sensor has no active alert. The in-memory active set
// is the serialization point; the mutex is never held across storage
// calls.
type Manager struct {
	repo storage.AlertRepository

	mu     sync.Mutex
	active map[string]string // sensor id -> active alert id
}

// NewManager creates an alert manager backed by the given repository.
func NewManager(repo storage.AlertRepository) *Manager {
	return &Manager{
		repo:   repo,
		active: make(map[string]string),
	}
}

// Load primes the active set from storage. Call once at startup so
// alerts active before a restart keep suppressing duplicates.
func (m *Manager) Load(ctx context.Context) error {
	alerts, err := m.repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active alerts: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alert := range alerts {
		if _, exists := m.active[alert.SensorID]; !exists {
			m.active[alert.SensorID] = alert.ID
		}
	}
	return nil
}

// MaybeRaise creates and persists a new active alert for the sensor
// unless one is already active, in which case it returns (nil, nil).
// The caller is responsible for broadcasting a returned alert.
//
// The sensor's slot is reserved before the storage write and released
// if the write fails, so two concurrent breaches for the same sensor
// can never both insert.
func (m *Manager) MaybeRaise(ctx context.Context, sensorID string, severity models.Severity, message string) (*models.Alert, error) {
	m.mu.Lock()
	if _, exists := m.active[sensorID]; exists {
		m.mu.Unlock()
		metrics.AlertsSuppressed.Inc()
		return nil, nil
	}
	m.active[sensorID] = "" // reserve the slot
	m.mu.Unlock()

	alert := &models.Alert{
		SensorID: sensorID,
		Severity: severity,
		Message:  message,
		Active:   true,
	}

	if err := m.repo.Create(ctx, alert); err != nil {
		m.mu.Lock()
		delete(m.active, sensorID)
		m.mu.Unlock()
		return nil, fmt.Errorf("persist alert: %w", err)
	}

	m.mu.Lock()
	m.active[sensorID] = alert.ID
	m.mu.Unlock()

	metrics.AlertsRaised.WithLabelValues(string(severity)).Inc()
	return alert, nil
}

// Acknowledge deactivates an alert by id, allowing a later breach to
// raise a fresh alert for the same sensor. Returns the deactivated
// alert. Unknown ids yield storage.ErrNotFound.
func (m *Manager) Acknowledge(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load alert: %w", err)
	}
	if alert == nil {
		return nil, fmt.Errorf("alert %s: %w", id, storage.ErrNotFound)
	}

	if err := m.repo.Deactivate(ctx, id); err != nil {
		return nil, err
	}
	alert.Active = false

	m.mu.Lock()
	if current, ok := m.active[alert.SensorID]; ok && current == id {
		delete(m.active, alert.SensorID)
	}
	m.mu.Unlock()

	return alert, nil
}

// ListActive returns all currently active alerts from storage.
func (m *Manager) ListActive(ctx context.Context) ([]*models.Alert, error) {
	return m.repo.ListActive(ctx)
}

// ActiveSensorCount returns the number of sensors with an active alert.
func (m *Manager) ActiveSensorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
