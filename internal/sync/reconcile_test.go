package sync

import (
	"testing"

	"github.com/opchat/opchat/internal/domain"
)

func msg(id string, ts int64, content string) *domain.Message {
	return &domain.Message{ID: id, Timestamp: ts, Content: content}
}

func TestMessagesEqual(t *testing.T) {
	base := []*domain.Message{
		msg("m1", 1, "a"), msg("m2", 2, "b"), msg("m3", 3, "c"), msg("m4", 4, "d"),
	}

	t.Run("identical", func(t *testing.T) {
		other := []*domain.Message{
			msg("m1", 1, "a"), msg("m2", 2, "b"), msg("m3", 3, "c"), msg("m4", 4, "d"),
		}
		if !MessagesEqual(base, other) {
			t.Error("identical lists reported unequal")
		}
	})

	t.Run("length differs", func(t *testing.T) {
		if MessagesEqual(base, base[:3]) {
			t.Error("different lengths reported equal")
		}
	})

	t.Run("last three differ", func(t *testing.T) {
		edited := []*domain.Message{
			msg("m1", 1, "a"), msg("m2", 2, "b"), msg("m3", 3, "CHANGED"), msg("m4", 4, "d"),
		}
		if MessagesEqual(base, edited) {
			t.Error("edit inside the window reported equal")
		}
	})

	t.Run("difference outside window ignored", func(t *testing.T) {
		edited := []*domain.Message{
			msg("m1", 1, "EDITED"), msg("m2", 2, "b"), msg("m3", 3, "c"), msg("m4", 4, "d"),
		}
		if !MessagesEqual(base, edited) {
			t.Error("edit outside the window should not count")
		}
	})

	t.Run("timestamp differs", func(t *testing.T) {
		edited := []*domain.Message{
			msg("m1", 1, "a"), msg("m2", 2, "b"), msg("m3", 3, "c"), msg("m4", 9, "d"),
		}
		if MessagesEqual(base, edited) {
			t.Error("timestamp change reported equal")
		}
	})

	t.Run("short lists", func(t *testing.T) {
		if !MessagesEqual([]*domain.Message{msg("m1", 1, "a")}, []*domain.Message{msg("m1", 1, "a")}) {
			t.Error("single-element lists reported unequal")
		}
		if MessagesEqual([]*domain.Message{msg("m1", 1, "a")}, []*domain.Message{msg("m2", 1, "a")}) {
			t.Error("different single elements reported equal")
		}
		if !MessagesEqual(nil, nil) {
			t.Error("empty lists reported unequal")
		}
	})
}

func TestMergePendingConfirmedDropped(t *testing.T) {
	fetched := []*domain.Message{msg("m1", 1, "a"), msg("p1", 5, "sent")}
	pending := []*domain.Message{msg("p1", 5, "sent"), msg("p2", 6, "still out")}

	merged, still := mergePending(fetched, pending)

	if len(merged) != 3 {
		t.Fatalf("merged = %d entries, want 3", len(merged))
	}
	if merged[2].ID != "p2" {
		t.Errorf("last merged = %q, want p2", merged[2].ID)
	}
	if len(still) != 1 || still[0].ID != "p2" {
		t.Errorf("still pending = %+v, want only p2", still)
	}
}

func TestMergePendingKeepsOrder(t *testing.T) {
	fetched := []*domain.Message{msg("m2", 20, "b"), msg("m3", 30, "c")}
	pending := []*domain.Message{msg("p1", 25, "mine")}

	merged, _ := mergePending(fetched, pending)
	want := []string{"m2", "p1", "m3"}
	for i, id := range want {
		if merged[i].ID != id {
			t.Fatalf("position %d = %q, want %q", i, merged[i].ID, id)
		}
	}
}

func TestMergePendingNoPending(t *testing.T) {
	fetched := []*domain.Message{msg("m1", 1, "a")}
	merged, still := mergePending(fetched, nil)
	if len(merged) != 1 || still != nil {
		t.Errorf("merge with no pending changed the list: %+v %+v", merged, still)
	}
}
