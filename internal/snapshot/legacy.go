package snapshot

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/engine"
)

// legacyTopicKeys maps the flat domain keys of version 1 documents onto catalog topics.
var legacyTopicKeys = map[string]string{
	"compute":    "EC2",
	"serverless": "LAMBDA",
	"storage":    "S3",
	"database":   "RDS",
	"iam":        "IAM",
	"security":   "IAM",
	"network":    "VPC",
	"billing":    "PRICING_MODELS",
	"pricing":    "PRICING_MODELS",
}

type legacyDocument struct {
	UserID           string                           `json:"userId"`
	ReadinessScore   int                              `json:"readinessScore"`
	Streak           int                              `json:"streak"`
	LastSessionDate  string                           `json:"lastSessionDate"`
	Topics           map[string]legacyTopic           `json:"topics"`
	QuestionsHistory map[string]legacyQuestionHistory `json:"questionsHistory"`
}

type legacyTopic struct {
	Mastery        int `json:"mastery"`
	CorrectAnswers int `json:"correctAnswers"`
	TotalAttempts  int `json:"totalAttempts"`
}

type legacyQuestionHistory struct {
	LastAttempt          string `json:"lastAttempt"`
	Interval             int    `json:"interval"`
	LastResult           string `json:"lastResult"`
	ConsecutiveSuccesses int    `json:"consecutiveSuccesses"`
}

// looksLegacy reports whether an unversioned document uses the version 1 field names.
func looksLegacy(data []byte) bool {
	var sniff struct {
		Topics           map[string]map[string]json.RawMessage `json:"topics"`
		QuestionsHistory map[string]map[string]json.RawMessage `json:"questionsHistory"`
	}
	if err := json.Unmarshal(data, &sniff); err != nil {
		return false
	}
	for _, t := range sniff.Topics {
		if _, ok := t["totalAttempts"]; ok {
			return true
		}
		if _, ok := t["correctAnswers"]; ok {
			return true
		}
	}
	for _, h := range sniff.QuestionsHistory {
		if _, ok := h["interval"]; ok {
			return true
		}
	}
	return false
}

func decodeLegacy(data []byte) (domain.UserProgress, error) {
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.UserProgress{}, err
	}

	out := domain.UserProgress{
		UserID:           doc.UserID,
		Streak:           doc.Streak,
		LastSessionDate:  doc.LastSessionDate,
		Topics:           make(map[string]domain.TopicProgress, len(doc.Topics)),
		QuestionsHistory: make(map[string]domain.QuestionHistory, len(doc.QuestionsHistory)),
	}

	// sorted so collisions sum in a stable order
	keys := make([]string, 0, len(doc.Topics))
	for k := range doc.Topics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		topicID, ok := legacyTopicKeys[key]
		if !ok {
			continue
		}
		lt := doc.Topics[key]
		tp := out.Topics[topicID]
		tp.TopicID = topicID
		tp.Attempts += max(lt.TotalAttempts, 0)
		tp.Correct += max(lt.CorrectAnswers, 0)
		tp.Correct = min(tp.Correct, tp.Attempts)
		out.Topics[topicID] = tp
	}

	for id, lh := range doc.QuestionsHistory {
		out.QuestionsHistory[id] = migrateQuestionHistory(lh)
	}
	return out, nil
}

func migrateQuestionHistory(lh legacyQuestionHistory) domain.QuestionHistory {
	level := 0
	for i, days := range engine.DefaultIntervals {
		if days <= lh.Interval {
			level = i
		}
	}
	errCount := 0
	if lh.LastResult == "incorrect" {
		errCount = 1
	}
	last, err := time.Parse(time.RFC3339Nano, lh.LastAttempt)
	if err != nil {
		last = time.Time{}
	}
	last = last.UTC()
	return domain.QuestionHistory{
		LastAttempt:          last,
		LastSeen:             last,
		NextReview:           last.AddDate(0, 0, max(lh.Interval, 0)),
		MasteryLevel:         level,
		ConsecutiveSuccesses: max(lh.ConsecutiveSuccesses, 0),
		ErrorCount:           errCount,
	}
}
