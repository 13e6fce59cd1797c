package engine

import (
	"sort"

	"github.com/andreluis2005/cognira/internal/domain"
)

// MaxHistorySize bounds the per-question review history kept in a progress.
const MaxHistorySize = 500

// compressHistory keeps the limit most recently attempted entries.
// Ties on lastAttempt are broken by question id so eviction is deterministic.
func compressHistory(history map[string]domain.QuestionHistory, limit int) map[string]domain.QuestionHistory {
	if len(history) <= limit {
		return history
	}
	ids := make([]string, 0, len(history))
	for id := range history {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := history[ids[i]].LastAttempt, history[ids[j]].LastAttempt
		if !a.Equal(b) {
			return a.After(b)
		}
		return ids[i] < ids[j]
	})
	out := make(map[string]domain.QuestionHistory, limit)
	for _, id := range ids[:limit] {
		out[id] = history[id]
	}
	return out
}
