package workflow

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/wills_backend/models"
)

// NOTE: These tests are intentionally DB-free. They validate the intended
// finalize semantics:
// - the Completed flip is a conditional update, so it wins at most once
// - the rendered artifact is a well-formed PDF for a fully valid document
//
// Full DB+redis integration tests should be added in an environment that can
// run MySQL and redis.

// fakeWillStore mirrors the conditional UPDATE in Will.MarkCompleted:
// the status flip only succeeds while the row is still Draft or Paid.
type fakeWillStore struct {
	mu     sync.Mutex
	status models.WillStatus
	flips  int
}

func (s *fakeWillStore) tryComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.Finalizable() {
		return false
	}
	s.status = models.WillStatusCompleted
	s.flips++
	return true
}

func TestFinalize_ConcurrentCallsCompleteOnce(t *testing.T) {
	for _, start := range []models.WillStatus{models.WillStatusDraft, models.WillStatusPaid} {
		store := &fakeWillStore{status: start}

		var wg sync.WaitGroup
		wins := make(chan bool, 25)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				wins <- store.tryComplete()
			}()
		}
		wg.Wait()
		close(wins)

		won := 0
		for w := range wins {
			if w {
				won++
			}
		}
		if won != 1 || store.flips != 1 {
			t.Errorf("start=%s: %d calls won (flips=%d), want exactly 1", start, won, store.flips)
		}
		if store.status != models.WillStatusCompleted {
			t.Errorf("start=%s: final status %s", start, store.status)
		}
	}
}

func TestFinalize_CompletedNeverFlipsAgain(t *testing.T) {
	store := &fakeWillStore{status: models.WillStatusCompleted}
	if store.tryComplete() {
		t.Fatal("completed will must not finalize again")
	}
}

func finalizableWillData(t *testing.T) *models.WillData {
	t.Helper()
	raw := []byte(`{
		"fullName": "Aung Kyaw Moe",
		"dob": "1980-05-04",
		"email": "aung@example.com",
		"phone": "0912345678",
		"residency": "Myanmar",
		"assets": [
			{"type": "Property", "description": "Two-storey house on Inya Road, Yangon", "estimatedValue": "250,000", "location": "Yangon"}
		],
		"beneficiaries": [
			{"fullName": "Su Su", "relationship": "Daughter", "percentage": 60},
			{"fullName": "Mya Mya", "relationship": "Son", "percentage": 40}
		],
		"executors": [
			{"fullName": "U Ba", "relationship": "Brother", "phone": "0998765432"}
		],
		"instructions": {"funeralWishes": "Buddhist ceremony at the family monastery."}
	}`)
	data, err := models.DecodeWillData(raw)
	if err != nil {
		t.Fatalf("fixture failed to decode: %v", err)
	}
	if verr := models.ValidateForFinalize(data); verr != nil {
		t.Fatalf("fixture is not finalizable: %v", verr.FieldErrors)
	}
	return data
}

func TestRenderWillPDF(t *testing.T) {
	name := "Family estate"
	will := &models.Will{
		ID:        7,
		OwnerId:   3,
		Status:    models.WillStatusPaid,
		Name:      &name,
		UpdatedAt: time.Now(),
	}
	data := finalizableWillData(t)
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	will.Data = raw

	pdf, err := RenderWillPDF(will, data)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("rendered PDF is empty")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", pdf[:8])
	}
}
