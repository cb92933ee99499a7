package store

import (
	"errors"
	"testing"
	"time"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

func TestCreateAndGet(t *testing.T) {
	s := NewInMemoryStore()
	created, err := s.Create(models.SpecialistAIML, "build a recommendation engine")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated session id")
	}
	if created.Status != models.StatusActive {
		t.Errorf("expected ACTIVE, got %s", created.Status)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Specialist != models.SpecialistAIML || got.InitialRequirements != "build a recommendation engine" {
		t.Errorf("session not stored correctly: %+v", got)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 session, got %d", s.Len())
	}
}

func TestCreateRejectsUnknownSpecialist(t *testing.T) {
	s := NewInMemoryStore()
	if _, err := s.Create("Plumber", "fix the pipes"); !errors.Is(err, models.ErrInvalidSpecialist) {
		t.Errorf("expected ErrInvalidSpecialist, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d sessions", s.Len())
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewInMemoryStore()
	created, _ := s.Create(models.SpecialistIOS, "a habit tracker app")

	snap, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap.Status = models.StatusComplete
	snap.History = append(snap.History, models.QAPair{Question: "q", Answer: "a"})

	again, _ := s.Get(created.ID)
	if again.Status != models.StatusActive || len(again.History) != 0 {
		t.Error("mutating a snapshot affected the stored session")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewInMemoryStore()
	created, _ := s.Create(models.SpecialistAndroid, "a delivery app")

	s.Delete(created.ID)
	if _, err := s.Get(created.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Second delete and deletes of unknown ids are no-ops.
	s.Delete(created.ID)
	s.Delete("no-such-id")
}

func TestAcquireSerializesAndDetectsRemoval(t *testing.T) {
	s := NewInMemoryStore()
	created, _ := s.Create(models.SpecialistFullStackWeb, "an online store")

	sess, release, err := s.Acquire(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sess.Status = models.StatusAwaitingAnswer
	sess.PendingQuestion = "Which browsers must be supported?"
	release()

	got, _ := s.Get(created.ID)
	if got.Status != models.StatusAwaitingAnswer || got.PendingQuestion == "" {
		t.Error("mutation under the session lock was not visible")
	}

	s.Delete(created.ID)
	if _, _, err := s.Acquire(created.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSweepRemovesIdleSessionsOnly(t *testing.T) {
	s := NewInMemoryStore()
	idle, _ := s.Create(models.SpecialistDataScience, "churn analysis")
	fresh, _ := s.Create(models.SpecialistDataScience, "sales dashboard")

	// Backdate the idle session's activity.
	ms, release, err := s.Acquire(idle.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ms.LastActivityAt = time.Now().Add(-time.Hour)
	release()

	removed := s.Sweep(time.Now(), 30*time.Minute)
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if _, err := s.Get(idle.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected idle session gone, got %v", err)
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Errorf("fresh session should survive the sweep: %v", err)
	}
}

func TestSweepSkipsInFlightSessions(t *testing.T) {
	s := NewInMemoryStore()
	created, _ := s.Create(models.SpecialistGameDev, "a puzzle game")

	sess, release, err := s.Acquire(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sess.LastActivityAt = time.Now().Add(-time.Hour)

	// The lock is held: the sweep must not remove the session even though it
	// is nominally idle.
	if removed := s.Sweep(time.Now(), 30*time.Minute); removed != 0 {
		t.Errorf("expected in-flight session to be skipped, removed %d", removed)
	}
	release()

	if removed := s.Sweep(time.Now(), 30*time.Minute); removed != 1 {
		t.Errorf("expected 1 removed after release, got %d", removed)
	}
}

func TestGetExpiresIdleSessionOpportunistically(t *testing.T) {
	current := time.Now()
	clock := func() time.Time { return current }
	s := NewInMemoryStore(WithMaxIdle(10*time.Minute), WithClock(clock))

	created, _ := s.Create(models.SpecialistAIML, "fraud detection")

	current = current.Add(11 * time.Minute)
	if _, err := s.Get(created.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected expired session to be gone, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected session removed from store, got %d", s.Len())
	}
}

func TestGetWithinIdleWindowSurvives(t *testing.T) {
	current := time.Now()
	clock := func() time.Time { return current }
	s := NewInMemoryStore(WithMaxIdle(10*time.Minute), WithClock(clock))

	created, _ := s.Create(models.SpecialistAIML, "fraud detection")

	current = current.Add(9 * time.Minute)
	if _, err := s.Get(created.ID); err != nil {
		t.Errorf("session within the idle window should survive: %v", err)
	}
}
