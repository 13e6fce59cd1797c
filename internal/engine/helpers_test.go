package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func embeddedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	ds, err := catalog.Embedded()
	require.NoError(t, err)
	cat, err := catalog.New(ds)
	require.NoError(t, err)
	return cat
}

// smallCatalog has two topics per domain for the first two domains and two questions per topic.
func smallCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	topics := []domain.Topic{
		{ID: "A1", MacroDomain: domain.DomainCloudConcepts, ExamWeight: domain.WeightHigh},
		{ID: "A2", MacroDomain: domain.DomainCloudConcepts, ExamWeight: domain.WeightLow},
		{ID: "B1", MacroDomain: domain.DomainSecurityCompliance, ExamWeight: domain.WeightMedium},
		{ID: "B2", MacroDomain: domain.DomainSecurityCompliance, ExamWeight: domain.WeightHigh},
	}
	var questions []domain.Question
	for _, tp := range topics {
		for i := 1; i <= 2; i++ {
			questions = append(questions, domain.Question{
				ID:              fmt.Sprintf("%s-q%d", tp.ID, i),
				TopicID:         tp.ID,
				Text:            "question",
				Options:         []domain.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
				CorrectOptionID: "a",
				Explanation:     "because a",
			})
		}
	}
	cat, err := catalog.New(catalog.Dataset{Certification: "SMALL", Topics: topics, Questions: questions})
	require.NoError(t, err)
	return cat
}

func newTestEngine(t *testing.T, cat *catalog.Catalog, sessionID string) *Engine {
	t.Helper()
	e, err := New(cat,
		WithIDGenerator(func() string { return sessionID }),
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	return e
}

func topicWith(id string, attempts, correct int) domain.TopicProgress {
	acc := Accuracy(correct, attempts)
	return domain.TopicProgress{
		TopicID:  id,
		Attempts: attempts,
		Correct:  correct,
		Accuracy: acc,
		Status:   TopicStatus(attempts, acc),
	}
}

func wrongOption(q domain.Question) string {
	for _, o := range q.Options {
		if o.ID != q.CorrectOptionID {
			return o.ID
		}
	}
	return ""
}
