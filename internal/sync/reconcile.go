package sync

import (
	"sort"

	"github.com/opchat/opchat/internal/domain"
)

// equalityWindow is how many trailing messages MessagesEqual inspects.
// Comparing the tail is enough to catch appends and edits of recent
// messages, which is all the backend produces between two polls.
const equalityWindow = 3

// MessagesEqual reports whether two message lists are the same for
// display purposes: equal length, and identical id, content and
// timestamp over the last equalityWindow entries. When it returns true
// the held slice must be kept as-is so downstream consumers see a
// stable reference and skip redundant re-renders.
func MessagesEqual(a, b []*domain.Message) bool {
	if len(a) != len(b) {
		return false
	}
	start := len(a) - equalityWindow
	if start < 0 {
		start = 0
	}
	for i := start; i < len(a); i++ {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content || a[i].Timestamp != b[i].Timestamp {
			return false
		}
	}
	return true
}

// sortAscending orders messages chronologically. The sort is stable so
// messages sharing a timestamp keep their fetch order.
func sortAscending(msgs []*domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp < msgs[j].Timestamp
	})
}

// mergePending folds optimistic local sends into a freshly fetched
// list. Fetched entries are authoritative: a pending message whose id
// already appears in the fetch has been confirmed and is dropped from
// the pending set. Survivors are appended and the result re-sorted, so
// a poll racing a send can never make an optimistic message vanish.
func mergePending(fetched, pending []*domain.Message) (merged, stillPending []*domain.Message) {
	if len(pending) == 0 {
		return fetched, nil
	}

	seen := make(map[string]struct{}, len(fetched))
	for _, m := range fetched {
		seen[m.ID] = struct{}{}
	}

	merged = fetched
	for _, p := range pending {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		merged = append(merged, p)
		stillPending = append(stillPending, p)
	}
	sortAscending(merged)
	return merged, stillPending
}
