package snapshot

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	ds, err := catalog.Embedded()
	require.NoError(t, err)
	cat, err := catalog.New(ds)
	require.NoError(t, err)
	return cat
}

func TestEncodeStripsMacroTopics(t *testing.T) {
	cat := testCatalog(t)
	p := engine.NewProgress(cat, "u1")
	require.NotEmpty(t, p.MacroTopics)

	raw, err := Encode(p)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "macroTopics")
	assert.JSONEq(t, "2", string(m["version"]))
}

func TestEncodeDecodeKeepsProgress(t *testing.T) {
	cat := testCatalog(t)
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	p := engine.NewProgress(cat, "u1")
	p.Streak = 3
	p.LastSessionDate = "2025-03-01"
	p.Topics["EC2"] = domain.TopicProgress{TopicID: "EC2", Attempts: 4, Correct: 3, MasteryLevel: 2}
	p.QuestionsHistory["clf-013"] = domain.QuestionHistory{
		LastAttempt: at, LastSeen: at, NextReview: at.AddDate(0, 0, 3), MasteryLevel: 2, ConsecutiveSuccesses: 2,
	}
	p = engine.Recompute(cat, p)

	raw, err := Encode(p)
	require.NoError(t, err)
	got, err := Decode(raw, cat)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodeFallsBackToDefault(t *testing.T) {
	cat := testCatalog(t)
	want := engine.NewProgress(cat, "")

	got, err := Decode(nil, cat)
	assert.True(t, errors.Is(err, ErrEmpty))
	assert.Equal(t, want, got)

	got, err = Decode([]byte("{not json"), cat)
	assert.Error(t, err)
	assert.Equal(t, want, got)

	got, err = Decode([]byte(`{"version":9,"topics":{}}`), cat)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
	assert.Equal(t, want, got)

	got, err = Decode([]byte(`{"version":2,"topics":[1,2]}`), cat)
	assert.Error(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeRecomputesDerivedFields(t *testing.T) {
	cat := testCatalog(t)
	raw := []byte(`{
		"version": 2,
		"userId": "u1",
		"readinessScore": 99,
		"topics": {
			"IAM": {"topicId": "IAM", "attempts": 10, "correct": 12, "accuracy": 5, "status": "WEAK", "masteryLevel": 9},
			"RETIRED": {"topicId": "RETIRED", "attempts": 2, "correct": 1}
		},
		"questionsHistory": {}
	}`)

	got, err := Decode(raw, cat)
	require.NoError(t, err)

	iam := got.Topics["IAM"]
	assert.Equal(t, 10, iam.Correct)
	assert.Equal(t, 100, iam.Accuracy)
	assert.Equal(t, domain.StatusStrong, iam.Status)
	assert.Equal(t, engine.MaxMasteryLevel, iam.MasteryLevel)

	assert.Contains(t, got.Topics, "RETIRED", "unknown topics are kept")
	assert.Equal(t, domain.StatusNotEvaluated, got.Topics["S3"].Status, "missing topics are added")
	assert.Len(t, got.Topics, cat.TopicCount()+1)
	assert.Equal(t, engine.ReadinessScore(cat, got), got.ReadinessScore)
	assert.NotEmpty(t, got.MacroTopics)
	assert.True(t, engine.Validate(got).Valid, engine.Validate(got).Strings())
}

func TestDecodeMigratesLegacyDocument(t *testing.T) {
	cat := testCatalog(t)
	raw := []byte(`{
		"userId": "guest-user",
		"readinessScore": 12,
		"streak": 2,
		"lastSessionDate": "2025-02-27",
		"topics": {
			"compute":  {"mastery": 40, "correctAnswers": 3, "totalAttempts": 5},
			"iam":      {"mastery": 10, "correctAnswers": 1, "totalAttempts": 2},
			"security": {"mastery": 90, "correctAnswers": 4, "totalAttempts": 4},
			"billing":  {"mastery": 0, "correctAnswers": 6, "totalAttempts": 2},
			"quantum":  {"mastery": 0, "correctAnswers": 1, "totalAttempts": 1}
		},
		"questionsHistory": {
			"clf-013": {"lastAttempt": "2025-02-27T10:00:00.000Z", "interval": 7, "lastResult": "correct", "consecutiveSuccesses": 3},
			"clf-007": {"lastAttempt": "2025-02-26T08:00:00+02:00", "interval": 2, "lastResult": "incorrect", "consecutiveSuccesses": 0}
		}
	}`)

	got, err := Decode(raw, cat)
	require.NoError(t, err)

	assert.Equal(t, "guest-user", got.UserID)
	assert.Equal(t, 2, got.Streak)
	assert.Equal(t, "2025-02-27", got.LastSessionDate)

	ec2 := got.Topics["EC2"]
	assert.Equal(t, 5, ec2.Attempts)
	assert.Equal(t, 3, ec2.Correct)
	assert.Equal(t, 60, ec2.Accuracy)
	assert.Equal(t, domain.StatusEvolving, ec2.Status)

	iam := got.Topics["IAM"]
	assert.Equal(t, 6, iam.Attempts, "iam and security are summed")
	assert.Equal(t, 5, iam.Correct)

	pricing := got.Topics["PRICING_MODELS"]
	assert.Equal(t, 2, pricing.Attempts)
	assert.Equal(t, 2, pricing.Correct, "correct clamped to attempts")

	assert.NotContains(t, got.Topics, "quantum")
	assert.Len(t, got.Topics, cat.TopicCount())

	strong := got.QuestionsHistory["clf-013"]
	at := time.Date(2025, 2, 27, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, strong.MasteryLevel)
	assert.Equal(t, 0, strong.ErrorCount)
	assert.Equal(t, 3, strong.ConsecutiveSuccesses)
	assert.Equal(t, at, strong.LastAttempt)
	assert.Equal(t, at, strong.LastSeen)
	assert.Equal(t, at.AddDate(0, 0, 7), strong.NextReview)

	weak := got.QuestionsHistory["clf-007"]
	assert.Equal(t, 1, weak.MasteryLevel)
	assert.Equal(t, 1, weak.ErrorCount)
	assert.Equal(t, time.Date(2025, 2, 26, 6, 0, 0, 0, time.UTC), weak.LastAttempt)

	assert.Equal(t, engine.ReadinessScore(cat, got), got.ReadinessScore)
	assert.True(t, engine.Validate(got).Valid, engine.Validate(got).Strings())
}

func TestDecodeExplicitVersionOne(t *testing.T) {
	cat := testCatalog(t)
	got, err := Decode([]byte(`{"version":1,"topics":{"storage":{"correctAnswers":1,"totalAttempts":1}}}`), cat)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Topics["S3"].Attempts)
}
