package overlay

import (
	"context"
	"errors"
	"testing"

	"categorytree/internal/models"
)

func id(v int) *int { return &v }

func committed() []models.Category[int] {
	return []models.Category[int]{
		{ID: 1, Order: 0, NamePrimary: "Electronics"},
		{ID: 2, Order: 1, NamePrimary: "Fashion"},
		{ID: 3, ParentID: id(1), Order: 0, NamePrimary: "Phones"},
		{ID: 4, ParentID: id(1), Order: 1, NamePrimary: "Laptops"},
	}
}

func find(t *testing.T, list []models.Category[int], want int) models.Category[int] {
	t.Helper()
	for _, c := range list {
		if c.ID == want {
			return c
		}
	}
	t.Fatalf("id %d not in list", want)
	return models.Category[int]{}
}

func TestStageUpsertsByID(t *testing.T) {
	s := New(committed())
	s.Stage(models.Reassignment[int]{ID: 3, ParentID: id(2), Order: 0})
	s.Stage(
		models.Reassignment[int]{ID: 4, ParentID: id(1), Order: 0},
		models.Reassignment[int]{ID: 3, ParentID: nil, Order: 2},
	)

	pending := s.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending: got %d, want 2", len(pending))
	}
	if pending[0].ID != 3 || pending[0].ParentID != nil || pending[0].Order != 2 {
		t.Errorf("later stage should replace earlier one: %+v", pending[0])
	}
	if pending[1].ID != 4 {
		t.Errorf("staging order not kept: %+v", pending)
	}
}

// TestMaterializeIsolation stages reassignments for two ids and checks that
// only those are patched, and that materializing changes no state.
func TestMaterializeIsolation(t *testing.T) {
	s := New(committed())
	s.Stage(
		models.Reassignment[int]{ID: 1, ParentID: nil, Order: 1},
		models.Reassignment[int]{ID: 2, ParentID: nil, Order: 0},
	)

	view := s.Materialize()
	if got := find(t, view, 1).Order; got != 1 {
		t.Errorf("id 1 order: got %d, want 1", got)
	}
	if got := find(t, view, 2).Order; got != 0 {
		t.Errorf("id 2 order: got %d, want 0", got)
	}
	for _, c := range view {
		if c.ID == 3 && (c.ParentID == nil || *c.ParentID != 1 || c.Order != 0) {
			t.Errorf("unstaged id 3 changed: %+v", c)
		}
		if c.ID == 4 && (c.ParentID == nil || *c.ParentID != 1 || c.Order != 1) {
			t.Errorf("unstaged id 4 changed: %+v", c)
		}
	}

	if got := find(t, s.Committed(), 1).Order; got != 0 {
		t.Errorf("committed list mutated: id 1 order %d", got)
	}
	if s.Len() != 2 {
		t.Errorf("pending changed by materialize: %d", s.Len())
	}
}

func TestCommitFailureKeepsPending(t *testing.T) {
	s := New(committed())
	staged := []models.Reassignment[int]{
		{ID: 1, ParentID: nil, Order: 1},
		{ID: 2, ParentID: nil, Order: 0},
	}
	s.Stage(staged...)

	boom := errors.New("store unavailable")
	n, err := s.Commit(context.Background(), func(_ context.Context, batch []models.Reassignment[int]) error {
		if len(batch) != 2 {
			t.Errorf("batch: got %d, want 2", len(batch))
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped persist error, got %v", err)
	}
	if n != 0 {
		t.Errorf("count on failure: got %d, want 0", n)
	}

	pending := s.Pending()
	if len(pending) != len(staged) {
		t.Fatalf("pending after failure: got %d, want %d", len(pending), len(staged))
	}
	for i := range staged {
		if !sameReassignment(pending[i], staged[i]) {
			t.Errorf("pending[%d]: got %+v, want %+v", i, pending[i], staged[i])
		}
	}

	s.Discard()
	if s.Len() != 0 {
		t.Errorf("discard left %d pending", s.Len())
	}
	if got := find(t, s.Materialize(), 1).Order; got != 0 {
		t.Errorf("materialize after discard should equal committed, id 1 order %d", got)
	}
}

func TestCommitSuccessClearsPending(t *testing.T) {
	s := New(committed())
	s.Stage(models.Reassignment[int]{ID: 4, ParentID: id(1), Order: 0})

	var got []models.Reassignment[int]
	n, err := s.Commit(context.Background(), func(_ context.Context, batch []models.Reassignment[int]) error {
		got = batch
		return nil
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if n != 1 || len(got) != 1 || got[0].ID != 4 {
		t.Errorf("persisted batch: n=%d batch=%+v", n, got)
	}
	if s.Len() != 0 {
		t.Errorf("pending after success: %d", s.Len())
	}
	// Commit does not fold the batch into the committed list.
	if got := find(t, s.Committed(), 4).Order; got != 1 {
		t.Errorf("committed list changed by commit: order %d", got)
	}
}

func TestCommitNothingPending(t *testing.T) {
	s := New(committed())
	called := false
	n, err := s.Commit(context.Background(), func(context.Context, []models.Reassignment[int]) error {
		called = true
		return nil
	})
	if err != nil || n != 0 {
		t.Errorf("empty commit: n=%d err=%v", n, err)
	}
	if called {
		t.Error("persist should not run with nothing pending")
	}
}

func TestCommitKeepsEntriesStagedInFlight(t *testing.T) {
	s := New(committed())
	s.Stage(
		models.Reassignment[int]{ID: 1, ParentID: nil, Order: 1},
		models.Reassignment[int]{ID: 2, ParentID: nil, Order: 0},
	)

	n, err := s.Commit(context.Background(), func(ctx context.Context, _ []models.Reassignment[int]) error {
		// A second commit must be refused while this one runs.
		if _, err := s.Commit(ctx, func(context.Context, []models.Reassignment[int]) error { return nil }); !errors.Is(err, ErrCommitInProgress) {
			t.Errorf("nested commit: got %v, want ErrCommitInProgress", err)
		}
		// Moves staged meanwhile belong to the next round.
		s.Stage(
			models.Reassignment[int]{ID: 2, ParentID: id(1), Order: 2},
			models.Reassignment[int]{ID: 3, ParentID: nil, Order: 2},
		)
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("Commit: n=%d err=%v", n, err)
	}

	pending := s.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending: got %+v, want ids 2 and 3", pending)
	}
	if pending[0].ID != 2 || pending[0].Order != 2 {
		t.Errorf("restaged id 2 lost: %+v", pending[0])
	}
	if pending[1].ID != 3 {
		t.Errorf("new id 3 lost: %+v", pending[1])
	}
}

func TestResetDropsVanishedIDs(t *testing.T) {
	s := New(committed())
	s.Stage(
		models.Reassignment[int]{ID: 3, ParentID: id(2), Order: 0},
		models.Reassignment[int]{ID: 4, ParentID: id(2), Order: 1},
	)

	refreshed := committed()[:3] // id 4 deleted upstream
	s.Reset(refreshed)

	pending := s.Pending()
	if len(pending) != 1 || pending[0].ID != 3 {
		t.Errorf("pending after reset: %+v", pending)
	}
	if len(s.Committed()) != 3 {
		t.Errorf("committed: got %d nodes, want 3", len(s.Committed()))
	}
}

func TestResetClosesGapLeftByDeletedSibling(t *testing.T) {
	s := New([]models.Category[int]{
		{ID: 10, Order: 0}, {ID: 11, Order: 1}, {ID: 12, Order: 2},
	})
	// 12 before 10: {12:0, 10:1, 11:2}.
	s.Stage(
		models.Reassignment[int]{ID: 12, Order: 0},
		models.Reassignment[int]{ID: 10, Order: 1},
		models.Reassignment[int]{ID: 11, Order: 2},
	)

	// 10 is deleted upstream and its old siblings renumbered.
	s.Reset([]models.Category[int]{{ID: 11, Order: 0}, {ID: 12, Order: 1}})

	view := s.Materialize()
	if got := find(t, view, 12).Order; got != 0 {
		t.Errorf("id 12 order: got %d, want 0", got)
	}
	if got := find(t, view, 11).Order; got != 1 {
		t.Errorf("id 11 order: got %d, want 1", got)
	}
}

func TestResetMakesRoomForNodeCreatedUpstream(t *testing.T) {
	s := New([]models.Category[int]{
		{ID: 10, Order: 0}, {ID: 11, Order: 1},
		{ID: 20, ParentID: id(10), Order: 0},
	})
	// 11 into 10 lands at order 1.
	s.Stage(
		models.Reassignment[int]{ID: 11, ParentID: id(10), Order: 1},
		models.Reassignment[int]{ID: 10, Order: 0},
	)

	// 21 was created under 10 at the next free committed order.
	s.Reset([]models.Category[int]{
		{ID: 10, Order: 0}, {ID: 11, Order: 1},
		{ID: 20, ParentID: id(10), Order: 0},
		{ID: 21, ParentID: id(10), Order: 1},
	})

	view := s.Materialize()
	if got := find(t, view, 21).Order; got != 1 {
		t.Errorf("created node order: got %d, want 1", got)
	}
	if got := find(t, view, 11).Order; got != 2 {
		t.Errorf("staged node order: got %d, want 2", got)
	}
}

func TestResetDropsMovesThatNowCloseACycle(t *testing.T) {
	s := New(committed())
	// Fashion into laptops.
	s.Stage(models.Reassignment[int]{ID: 2, ParentID: id(4), Order: 0})

	// Meanwhile laptops was saved under fashion.
	refreshed := []models.Category[int]{
		{ID: 1, Order: 0}, {ID: 2, Order: 1},
		{ID: 3, ParentID: id(1), Order: 0},
		{ID: 4, ParentID: id(2), Order: 0},
	}
	s.Reset(refreshed)

	if s.Len() != 0 {
		t.Errorf("cyclic move kept: %+v", s.Pending())
	}
	if got := find(t, s.Materialize(), 2); got.ParentID != nil {
		t.Errorf("fashion should stay a root, parent %v", *got.ParentID)
	}
}
