package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
)

// memAlertRepo is an in-memory AlertRepository with optional create
// failure injection.
type memAlertRepo struct {
	mu         sync.Mutex
	alerts     map[string]*models.Alert
	failCreate bool
	creates    int
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[string]*models.Alert)}
}

func (r *memAlertRepo) Create(ctx context.Context, a *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.failCreate {
		return fmt.Errorf("simulated create failure")
	}
	a.ID = uuid.New().String()
	a.CreatedAt = time.Now()
	copied := *a
	r.alerts[a.ID] = &copied
	return nil
}

func (r *memAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *memAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*models.Alert
	for _, a := range r.alerts {
		if a.Active {
			copied := *a
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (r *memAlertRepo) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return storage.ErrNotFound
	}
	a.Active = false
	return nil
}

func TestMaybeRaiseFirstBreach(t *testing.T) {
	m := NewManager(newMemAlertRepo())

	alert, err := m.MaybeRaise(context.Background(), "TEMP-01", models.SeverityWarning, "temperature high")
	if err != nil {
		t.Fatalf("MaybeRaise: %v", err)
	}
	if alert == nil {
		t.Fatal("first breach should raise an alert")
	}
	if alert.ID == "" {
		t.Error("raised alert has no id")
	}
	if !alert.Active {
		t.Error("raised alert should be active")
	}
}

func TestMaybeRaiseSuppressesDuplicate(t *testing.T) {
	m := NewManager(newMemAlertRepo())
	ctx := context.Background()

	first, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityWarning, "breach")
	if err != nil || first == nil {
		t.Fatalf("first MaybeRaise = (%v, %v)", first, err)
	}

	second, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityCritical, "breach again")
	if err != nil {
		t.Fatalf("second MaybeRaise: %v", err)
	}
	if second != nil {
		t.Error("duplicate breach should be suppressed while an alert is active")
	}

	// A different sensor is unaffected.
	other, err := m.MaybeRaise(ctx, "PRES-01", models.SeverityWarning, "breach")
	if err != nil || other == nil {
		t.Fatalf("other sensor MaybeRaise = (%v, %v)", other, err)
	}
}

func TestMaybeRaiseConcurrentBreaches(t *testing.T) {
	repo := newMemAlertRepo()
	m := NewManager(repo)
	ctx := context.Background()

	const workers = 16
	raised := make(chan *models.Alert, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alert, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityCritical, "concurrent breach")
			if err != nil {
				t.Errorf("MaybeRaise: %v", err)
				return
			}
			if alert != nil {
				raised <- alert
			}
		}()
	}
	wg.Wait()
	close(raised)

	var count int
	for range raised {
		count++
	}
	if count != 1 {
		t.Errorf("%d alerts raised under concurrency, want exactly 1", count)
	}
	if repo.creates != 1 {
		t.Errorf("%d storage inserts, want exactly 1", repo.creates)
	}
}

func TestMaybeRaiseReleasesSlotOnStorageFailure(t *testing.T) {
	repo := newMemAlertRepo()
	repo.failCreate = true
	m := NewManager(repo)
	ctx := context.Background()

	if _, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityWarning, "breach"); err == nil {
		t.Fatal("expected error from failing storage")
	}

	// The reservation must be rolled back so a later breach can insert.
	repo.failCreate = false
	alert, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityWarning, "breach retry")
	if err != nil {
		t.Fatalf("retry MaybeRaise: %v", err)
	}
	if alert == nil {
		t.Error("slot should be free after a failed insert")
	}
}

func TestAcknowledgeAllowsReRaise(t *testing.T) {
	m := NewManager(newMemAlertRepo())
	ctx := context.Background()

	alert, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityWarning, "breach")
	if err != nil || alert == nil {
		t.Fatalf("MaybeRaise = (%v, %v)", alert, err)
	}

	acked, err := m.Acknowledge(ctx, alert.ID)
	if err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if acked.Active {
		t.Error("acknowledged alert should be inactive")
	}

	again, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityWarning, "new breach")
	if err != nil {
		t.Fatalf("MaybeRaise after ack: %v", err)
	}
	if again == nil {
		t.Error("breach after acknowledgment should raise a fresh alert")
	}
	if again.ID == alert.ID {
		t.Error("fresh alert should have a new id")
	}
}

func TestAcknowledgeUnknownID(t *testing.T) {
	m := NewManager(newMemAlertRepo())

	_, err := m.Acknowledge(context.Background(), "no-such-alert")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestLoadPrimesActiveSet(t *testing.T) {
	repo := newMemAlertRepo()
	ctx := context.Background()

	pre := &models.Alert{SensorID: "TEMP-01", Severity: models.SeverityCritical, Message: "pre-restart", Active: true}
	if err := repo.Create(ctx, pre); err != nil {
		t.Fatalf("seed alert: %v", err)
	}

	m := NewManager(repo)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	dup, err := m.MaybeRaise(ctx, "TEMP-01", models.SeverityCritical, "post-restart breach")
	if err != nil {
		t.Fatalf("MaybeRaise: %v", err)
	}
	if dup != nil {
		t.Error("alert active before restart should suppress new alerts after Load")
	}
	if m.ActiveSensorCount() != 1 {
		t.Errorf("ActiveSensorCount = %d, want 1", m.ActiveSensorCount())
	}
}
