package engine

import (
	"testing"

	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanProgress(t *testing.T) {
	p := NewProgress(embeddedCatalog(t), "u")
	p.Topics["EC2"] = topicWith("EC2", 10, 7)

	v := Validate(p)
	assert.True(t, v.Valid)
	assert.NotNil(t, v.Errors)
	assert.Empty(t, v.Errors)
}

func TestValidateReportsEveryViolation(t *testing.T) {
	p := domain.UserProgress{
		ReadinessScore: 140,
		Streak:         -1,
		Topics: map[string]domain.TopicProgress{
			"b": {TopicID: "b", Attempts: 2, Correct: 5, Accuracy: 250, Status: domain.StatusEvolving, MasteryLevel: 8},
			"a": {TopicID: "a", Attempts: 10, Correct: 5, Accuracy: 90, Status: domain.StatusWeak},
			"c": {TopicID: "c", Accuracy: 55, Status: domain.StatusNotEvaluated},
		},
		QuestionsHistory: map[string]domain.QuestionHistory{
			"q1": {MasteryLevel: -1, ErrorCount: -2, ConsecutiveSuccesses: -3},
		},
	}

	v := Validate(p)
	require.False(t, v.Valid)

	var got []Invariant
	var entities []string
	for _, e := range v.Errors {
		got = append(got, e.Invariant)
		entities = append(entities, e.Entity)
	}
	assert.Equal(t, []Invariant{
		InvReadinessRange,
		InvStreakNonNegative,
		InvAccuracyConsistent,
		InvStatusConsistent,
		InvCorrectWithinTries,
		InvAccuracyRange,
		InvMasteryRange,
		InvAccuracyConsistent,
		InvStatusConsistent,
		InvAccuracyConsistent,
		InvMasteryRange,
		InvErrorCountNonNeg,
		InvConsecutiveNonNeg,
	}, got)
	assert.Equal(t, []string{
		"progress", "progress",
		"topic:a", "topic:a",
		"topic:b", "topic:b", "topic:b", "topic:b", "topic:b",
		"topic:c",
		"question:q1", "question:q1", "question:q1",
	}, entities)
	assert.Equal(t, "READINESS_RANGE [progress]: readinessScore=140", v.Errors[0].String())
	assert.Equal(t, "ACCURACY_CONSISTENT [topic:c]: accuracy stored=55 expected=0", v.Errors[9].String())
}

func TestValidateIsPure(t *testing.T) {
	p := domain.UserProgress{
		Topics: map[string]domain.TopicProgress{
			"x": {TopicID: "x", Attempts: -1, Correct: 0, Status: domain.StatusWeak},
		},
	}
	before := p.Clone()
	first := Validate(p)
	second := Validate(p)
	assert.Equal(t, first, second)
	assert.Equal(t, before, p.Clone())
	assert.Contains(t, first.Strings(), "COUNTS_NON_NEGATIVE [topic:x]: attempts=-1 correct=0")
}

func TestValidateHistoryBound(t *testing.T) {
	p := domain.UserProgress{QuestionsHistory: map[string]domain.QuestionHistory{}}
	for i := 0; i <= MaxHistorySize; i++ {
		p.QuestionsHistory[historyID(i)] = domain.QuestionHistory{}
	}
	v := Validate(p)
	require.Len(t, v.Errors, 1)
	assert.Equal(t, InvHistoryBounded, v.Errors[0].Invariant)
}

func TestRecomputeRepairsProgress(t *testing.T) {
	cat := smallCatalog(t)
	p := domain.UserProgress{
		Streak: -4,
		Topics: map[string]domain.TopicProgress{
			"A1": {Attempts: 3, Correct: 9, Accuracy: 12, Status: domain.StatusWeak, MasteryLevel: 11},
		},
	}
	require.False(t, Validate(p).Valid)
	assert.True(t, Validate(Recompute(cat, p)).Valid)
}
