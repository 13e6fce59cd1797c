package engine

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/andreluis2005/cognira/internal/domain"
)

// HashString is 32-bit FNV-1a over the bytes of s.
func HashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// ProgressDigest serializes the parts of progress that influence selection,
// as "topic:attempts:correct:status" entries sorted by topic id and joined by "|".
func ProgressDigest(progress domain.UserProgress) string {
	ids := make([]string, 0, len(progress.Topics))
	for id := range progress.Topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for i, id := range ids {
		t := progress.Topics[id]
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(id)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(t.Attempts))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(t.Correct))
		b.WriteByte(':')
		b.WriteString(string(t.Status))
	}
	return b.String()
}

// ComposeSeed derives the seed for one step of a session.
func ComposeSeed(sessionID string, progress domain.UserProgress, stepIndex int) uint32 {
	return HashString(sessionID) ^ HashString(ProgressDigest(progress)) ^ uint32(stepIndex)
}

// SessionRNG builds the generator for a given step.
func SessionRNG(sessionID string, progress domain.UserProgress, stepIndex int) *RNG {
	return NewRNG(ComposeSeed(sessionID, progress, stepIndex))
}
