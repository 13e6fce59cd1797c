package engine

import (
	"fmt"
	"sort"

	"github.com/andreluis2005/cognira/internal/domain"
)

// Invariant names a rule a progress must satisfy.
type Invariant string

const (
	InvReadinessRange     Invariant = "READINESS_RANGE"
	InvStreakNonNegative  Invariant = "STREAK_NON_NEGATIVE"
	InvCountsNonNegative  Invariant = "COUNTS_NON_NEGATIVE"
	InvCorrectWithinTries Invariant = "CORRECT_LE_ATTEMPTS"
	InvAccuracyRange      Invariant = "ACCURACY_RANGE"
	InvAccuracyConsistent Invariant = "ACCURACY_CONSISTENT"
	InvStatusConsistent   Invariant = "STATUS_CONSISTENT"
	InvMasteryRange       Invariant = "MASTERY_RANGE"
	InvErrorCountNonNeg   Invariant = "ERROR_COUNT_NON_NEGATIVE"
	InvConsecutiveNonNeg  Invariant = "CONSECUTIVE_NON_NEGATIVE"
	InvHistoryBounded     Invariant = "HISTORY_BOUNDED"
)

// Violation is one failed rule on one entity.
type Violation struct {
	Invariant Invariant `json:"invariant"`
	Entity    string    `json:"entity"`
	Message   string    `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s [%s]: %s", v.Invariant, v.Entity, v.Message)
}

// Verdict is the result of validating a progress.
type Verdict struct {
	Valid  bool        `json:"valid"`
	Errors []Violation `json:"errors"`
}

// Strings renders each violation on one line.
func (v Verdict) Strings() []string {
	out := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		out = append(out, e.String())
	}
	return out
}

// Validate reports every violated rule in progress. It never fails and never modifies progress.
// Entities are visited in sorted order so repeated runs give identical verdicts.
func Validate(progress domain.UserProgress) Verdict {
	errs := make([]Violation, 0)
	add := func(inv Invariant, entity, format string, args ...any) {
		errs = append(errs, Violation{Invariant: inv, Entity: entity, Message: fmt.Sprintf(format, args...)})
	}

	if progress.ReadinessScore < 0 || progress.ReadinessScore > 100 {
		add(InvReadinessRange, "progress", "readinessScore=%d", progress.ReadinessScore)
	}
	if progress.Streak < 0 {
		add(InvStreakNonNegative, "progress", "streak=%d", progress.Streak)
	}

	for _, id := range sortedKeys(progress.Topics) {
		t := progress.Topics[id]
		entity := "topic:" + id
		if t.Attempts < 0 || t.Correct < 0 {
			add(InvCountsNonNegative, entity, "attempts=%d correct=%d", t.Attempts, t.Correct)
		}
		if t.Correct > t.Attempts {
			add(InvCorrectWithinTries, entity, "correct(%d) > attempts(%d)", t.Correct, t.Attempts)
		}
		if t.Accuracy < 0 || t.Accuracy > 100 {
			add(InvAccuracyRange, entity, "accuracy=%d", t.Accuracy)
		}
		if t.MasteryLevel < 0 || t.MasteryLevel > MaxMasteryLevel {
			add(InvMasteryRange, entity, "masteryLevel=%d", t.MasteryLevel)
		}
		if want := Accuracy(t.Correct, t.Attempts); t.Accuracy != want {
			add(InvAccuracyConsistent, entity, "accuracy stored=%d expected=%d", t.Accuracy, want)
		}
		if want := TopicStatus(t.Attempts, t.Accuracy); t.Status != want {
			add(InvStatusConsistent, entity, "status stored=%s expected=%s", t.Status, want)
		}
	}

	for _, id := range sortedKeys(progress.QuestionsHistory) {
		qh := progress.QuestionsHistory[id]
		entity := "question:" + id
		if qh.MasteryLevel < 0 || qh.MasteryLevel > MaxMasteryLevel {
			add(InvMasteryRange, entity, "masteryLevel=%d", qh.MasteryLevel)
		}
		if qh.ErrorCount < 0 {
			add(InvErrorCountNonNeg, entity, "errorCount=%d", qh.ErrorCount)
		}
		if qh.ConsecutiveSuccesses < 0 {
			add(InvConsecutiveNonNeg, entity, "consecutiveSuccesses=%d", qh.ConsecutiveSuccesses)
		}
	}

	if n := len(progress.QuestionsHistory); n > MaxHistorySize {
		add(InvHistoryBounded, "questionsHistory", "size=%d exceeds %d", n, MaxHistorySize)
	}

	return Verdict{Valid: len(errs) == 0, Errors: errs}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
