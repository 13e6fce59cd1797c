package engine

import (
	"math"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
)

const (
	// MaxMasteryLevel is the top of the 0-5 mastery scale.
	MaxMasteryLevel = 5

	weakBelow     = 40
	evolvingBelow = 70
)

// TopicStatus classifies a topic from its attempt count and accuracy.
func TopicStatus(attempts, accuracy int) domain.TopicStatus {
	switch {
	case attempts == 0:
		return domain.StatusNotEvaluated
	case accuracy < weakBelow:
		return domain.StatusWeak
	case accuracy < evolvingBelow:
		return domain.StatusEvolving
	default:
		return domain.StatusStrong
	}
}

// Accuracy is round(correct/attempts*100) clamped to [0,100]; 0 without attempts.
func Accuracy(correct, attempts int) int {
	if attempts <= 0 {
		return 0
	}
	return clamp(int(math.Round(float64(correct)/float64(attempts)*100)), 0, 100)
}

// DeriveMacroTopics aggregates the evaluated topics of each macro-domain.
func DeriveMacroTopics(cat *catalog.Catalog, topics map[string]domain.TopicProgress) map[domain.MacroDomain]domain.MacroTopicProgress {
	out := make(map[domain.MacroDomain]domain.MacroTopicProgress, len(domain.MacroDomains()))
	for _, d := range domain.MacroDomains() {
		var attempts, correct, mastery int
		for _, id := range cat.TopicsInDomain(d) {
			t, ok := topics[id]
			if !ok || t.Attempts <= 0 {
				continue
			}
			attempts += t.Attempts
			correct += max(t.Correct, 0)
			mastery = max(mastery, clamp(t.MasteryLevel, 0, MaxMasteryLevel))
		}
		accuracy := Accuracy(correct, attempts)
		out[d] = domain.MacroTopicProgress{
			Attempts:     attempts,
			Correct:      correct,
			Accuracy:     accuracy,
			MasteryLevel: mastery,
			Status:       TopicStatus(attempts, accuracy),
		}
	}
	return out
}

// ReadinessScore weighs breadth (30%) and correctness (70%) of evaluated topics.
// The breadth denominator is the catalog topic count.
func ReadinessScore(cat *catalog.Catalog, progress domain.UserProgress) int {
	total := cat.TopicCount()
	if total == 0 {
		return 0
	}
	evaluated := 0
	sum := 0.0
	for _, t := range progress.Topics {
		if t.Attempts <= 0 {
			continue
		}
		evaluated++
		sum += float64(t.Accuracy)
	}
	if evaluated == 0 {
		return 0
	}
	coverage := float64(evaluated) / float64(total)
	avgAccuracy := math.Max(0, math.Min(100, sum/float64(evaluated)))
	score := coverage*30 + avgAccuracy/100*70
	return clamp(int(math.Round(score)), 0, 100)
}

// StrongQuestionsTarget is how many STRONG-topic questions a session may inject:
// fewer for advanced learners, more for beginners.
func StrongQuestionsTarget(cat *catalog.Catalog, progress domain.UserProgress) int {
	total := cat.TopicCount()
	if total == 0 {
		return 1
	}
	strong := 0
	for _, t := range progress.Topics {
		if t.Status == domain.StatusStrong {
			strong++
		}
	}
	ratio := float64(strong) / float64(total)
	switch {
	case ratio > 0.5:
		return 1
	case ratio > 0.2:
		return 2
	default:
		return 3
	}
}

// NewProgress returns a fresh progress with every catalog topic NOT_EVALUATED.
func NewProgress(cat *catalog.Catalog, userID string) domain.UserProgress {
	p := domain.UserProgress{
		UserID:           userID,
		Topics:           make(map[string]domain.TopicProgress, cat.TopicCount()),
		QuestionsHistory: make(map[string]domain.QuestionHistory),
	}
	for _, t := range cat.Topics() {
		p.Topics[t.ID] = emptyTopic(t.ID)
	}
	p.MacroTopics = DeriveMacroTopics(cat, p.Topics)
	return p
}

// Recompute refreshes every derived field from the source counts.
// Counts are clamped so correct never exceeds attempts.
func Recompute(cat *catalog.Catalog, progress domain.UserProgress) domain.UserProgress {
	out := progress.Clone()
	for id, t := range out.Topics {
		t.TopicID = id
		t.Attempts = max(t.Attempts, 0)
		t.Correct = clamp(t.Correct, 0, t.Attempts)
		t.Accuracy = Accuracy(t.Correct, t.Attempts)
		t.Status = TopicStatus(t.Attempts, t.Accuracy)
		t.MasteryLevel = clamp(t.MasteryLevel, 0, MaxMasteryLevel)
		out.Topics[id] = t
	}
	out.Streak = max(out.Streak, 0)
	out.MacroTopics = DeriveMacroTopics(cat, out.Topics)
	out.ReadinessScore = ReadinessScore(cat, out)
	return out
}

func emptyTopic(id string) domain.TopicProgress {
	return domain.TopicProgress{TopicID: id, Status: domain.StatusNotEvaluated}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
