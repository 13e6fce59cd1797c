package engine

import (
	"sort"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
)

const dayLayout = "2006-01-02"

// ReadinessBand buckets a readiness score for display.
type ReadinessBand string

const (
	BandAtRisk   ReadinessBand = "AT_RISK"
	BandEvolving ReadinessBand = "EVOLVING"
	BandReady    ReadinessBand = "READY"
)

// BandFor maps a readiness score to its band.
func BandFor(score int) ReadinessBand {
	switch {
	case score < 50:
		return BandAtRisk
	case score < 80:
		return BandEvolving
	default:
		return BandReady
	}
}

// CompleteSession records a finished session on a copy of progress.
// A session on the same UTC day keeps the streak, the following day extends it,
// and any longer gap restarts it at 1.
func CompleteSession(progress domain.UserProgress, now time.Time) domain.UserProgress {
	out := progress.Clone()
	today := now.UTC().Format(dayLayout)

	last, ok := parseDay(progress.LastSessionDate)
	switch {
	case !ok:
		out.Streak = 1
	case last.Format(dayLayout) == today:
		out.Streak = max(out.Streak, 1)
	case last.AddDate(0, 0, 1).Format(dayLayout) == today:
		out.Streak = max(out.Streak, 0) + 1
	default:
		out.Streak = 1
	}
	out.LastSessionDate = today
	return out
}

// parseDay accepts a bare day or a full timestamp, as written by older clients.
func parseDay(raw string) (time.Time, bool) {
	if len(raw) < len(dayLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dayLayout, raw[:len(dayLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TopicInsight describes one topic for a dashboard.
type TopicInsight struct {
	Topic    domain.Topic         `json:"topic"`
	Progress domain.TopicProgress `json:"progress"`
}

// WeakestTopics returns up to n evaluated topics, lowest accuracy first.
// Ties go to the topic with more exam weight, then to the lower id.
func WeakestTopics(cat *catalog.Catalog, progress domain.UserProgress, n int) []TopicInsight {
	var out []TopicInsight
	for _, t := range cat.Topics() {
		tp, ok := progress.Topics[t.ID]
		if !ok || tp.Attempts <= 0 {
			continue
		}
		out = append(out, TopicInsight{Topic: t, Progress: tp})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Progress.Accuracy != b.Progress.Accuracy {
			return a.Progress.Accuracy < b.Progress.Accuracy
		}
		if a.Topic.ExamWeight.Rank() != b.Topic.ExamWeight.Rank() {
			return a.Topic.ExamWeight.Rank() < b.Topic.ExamWeight.Rank()
		}
		return a.Topic.ID < b.Topic.ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DueForReview lists question ids whose next review is at or before now, most overdue first.
func DueForReview(progress domain.UserProgress, now time.Time) []string {
	var due []string
	for id, qh := range progress.QuestionsHistory {
		if !qh.NextReview.After(now) {
			due = append(due, id)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		a := progress.QuestionsHistory[due[i]].NextReview
		b := progress.QuestionsHistory[due[j]].NextReview
		if !a.Equal(b) {
			return a.Before(b)
		}
		return due[i] < due[j]
	})
	return due
}
