package engine

import (
	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
)

// SessionSize is the number of selector-driven questions in a session.
const SessionSize = 15

// Selection weights. Improve covers every non-STRONG status.
const (
	weightDefaultWeak     = 30
	weightDefaultEvolving = 20
	weightDefaultStrong   = 5
	weightBlockedWeak     = 3
	weightBlockedEvolving = 2
	weightUniform         = 1
)

type weightedQuestion struct {
	question domain.Question
	weight   float64
}

type candidate struct {
	question domain.Question
	status   domain.TopicStatus
}

// SelectNext picks the next question for a session.
// It never fails: with nothing left to draw from it picks uniformly from the whole bank.
func SelectNext(cat *catalog.Catalog, progress domain.UserProgress, history []domain.HistoryItem, rng Random, mode domain.Mode, targetID string) domain.Question {
	used := make(map[string]struct{}, len(history))
	for _, h := range history {
		used[h.QuestionID] = struct{}{}
	}

	pool := cat.Pool(mode, targetID)
	available := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if _, seen := used[q.ID]; !seen {
			available = append(available, q)
		}
	}

	if len(available) == 0 {
		all := cat.Questions()
		return all[pick(rng, len(all))]
	}
	if mode != domain.ModeSmart {
		return available[pick(rng, len(available))]
	}

	candidates := make([]candidate, 0, len(available))
	var poolStrong, poolImprove []candidate
	for _, q := range available {
		c := candidate{question: q, status: topicStatusOf(progress, q.TopicID)}
		candidates = append(candidates, c)
		if c.status == domain.StatusStrong {
			poolStrong = append(poolStrong, c)
		} else {
			poolImprove = append(poolImprove, c)
		}
	}

	usedStrong := 0
	for _, h := range history {
		q, ok := cat.Question(h.QuestionID)
		if ok && topicStatusOf(progress, q.TopicID) == domain.StatusStrong {
			usedStrong++
		}
	}

	remainingSlots := SessionSize - len(history)
	strongNeeded := max(0, 1-usedStrong)
	strongAllowed := max(0, StrongQuestionsTarget(cat, progress)-usedStrong)

	var weighted []weightedQuestion
	switch {
	case remainingSlots <= strongNeeded && len(poolStrong) > 0:
		// The session is about to end without a confidence question.
		weighted = uniform(poolStrong)
	case strongAllowed <= 0:
		if len(poolImprove) > 0 {
			for _, c := range poolImprove {
				weighted = append(weighted, weightedQuestion{
					question: c.question,
					weight:   improveWeight(c.status, weightBlockedWeak, weightBlockedEvolving),
				})
			}
		} else {
			weighted = uniform(poolStrong)
		}
	default:
		for _, c := range poolImprove {
			weighted = append(weighted, weightedQuestion{
				question: c.question,
				weight:   improveWeight(c.status, weightDefaultWeak, weightDefaultEvolving),
			})
		}
		for _, c := range poolStrong {
			weighted = append(weighted, weightedQuestion{question: c.question, weight: weightDefaultStrong})
		}
	}

	if len(weighted) == 0 {
		weighted = uniform(candidates)
	}
	return roulette(weighted, rng)
}

// strongFloorDue reports whether the next question fills the last selector slot of a
// smart session that has not served a STRONG-topic question yet while one is
// still available. That slot goes to the selector; a pending reinforcement
// waits one step.
func strongFloorDue(cat *catalog.Catalog, progress domain.UserProgress, current []domain.HistoryItem, mode domain.Mode, pool []domain.Question) bool {
	if mode != domain.ModeSmart || len(current) != SessionSize-1 {
		return false
	}
	used := make(map[string]struct{}, len(current))
	for _, h := range current {
		used[h.QuestionID] = struct{}{}
		if q, ok := cat.Question(h.QuestionID); ok && topicStatusOf(progress, q.TopicID) == domain.StatusStrong {
			return false
		}
	}
	for _, q := range pool {
		if _, seen := used[q.ID]; !seen && topicStatusOf(progress, q.TopicID) == domain.StatusStrong {
			return true
		}
	}
	return false
}

// roulette draws r in [0, total) and returns the first entry where the running remainder reaches zero.
func roulette(items []weightedQuestion, rng Random) domain.Question {
	total := 0.0
	for _, it := range items {
		total += it.weight
	}
	if total <= 0 {
		return items[0].question
	}
	r := rng.Float64() * total
	for _, it := range items {
		r -= it.weight
		if r <= 0 {
			return it.question
		}
	}
	// float drift
	return items[len(items)-1].question
}

func uniform(cs []candidate) []weightedQuestion {
	out := make([]weightedQuestion, 0, len(cs))
	for _, c := range cs {
		out = append(out, weightedQuestion{question: c.question, weight: weightUniform})
	}
	return out
}

func improveWeight(status domain.TopicStatus, weak, evolving float64) float64 {
	switch status {
	case domain.StatusWeak, domain.StatusNotEvaluated:
		return weak
	case domain.StatusEvolving:
		return evolving
	default:
		return weightUniform
	}
}

func topicStatusOf(progress domain.UserProgress, topicID string) domain.TopicStatus {
	t, ok := progress.Topics[topicID]
	if !ok || t.Status == "" {
		return domain.StatusNotEvaluated
	}
	return t.Status
}
