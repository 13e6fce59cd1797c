package domain

import (
	"strings"
	"time"
)

// TopicStatus classifies a topic by how well the learner performs on it.
type TopicStatus string

const (
	StatusNotEvaluated TopicStatus = "NOT_EVALUATED"
	StatusWeak         TopicStatus = "WEAK"
	StatusEvolving     TopicStatus = "EVOLVING"
	StatusStrong       TopicStatus = "STRONG"
)

// MacroDomain is one of the four top-level exam domains.
type MacroDomain string

const (
	DomainCloudConcepts      MacroDomain = "D1_CLOUD_CONCEPTS"
	DomainSecurityCompliance MacroDomain = "D2_SECURITY_COMPLIANCE"
	DomainTechnologyServices MacroDomain = "D3_TECHNOLOGY_SERVICES"
	DomainBillingSupport     MacroDomain = "D4_BILLING_SUPPORT"
)

// MacroDomains returns the fixed macro-domains in exam order.
func MacroDomains() []MacroDomain {
	return []MacroDomain{
		DomainCloudConcepts,
		DomainSecurityCompliance,
		DomainTechnologyServices,
		DomainBillingSupport,
	}
}

// Valid reports whether d is one of the fixed macro-domains.
func (d MacroDomain) Valid() bool {
	for _, known := range MacroDomains() {
		if d == known {
			return true
		}
	}
	return false
}

// ExamWeight is the relative importance of a topic in the real exam.
type ExamWeight string

const (
	WeightLow    ExamWeight = "LOW"
	WeightMedium ExamWeight = "MEDIUM"
	WeightHigh   ExamWeight = "HIGH"
)

// Rank orders weights so that HIGH sorts first.
func (w ExamWeight) Rank() int {
	switch w {
	case WeightHigh:
		return 0
	case WeightMedium:
		return 1
	case WeightLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether w is a known exam weight.
func (w ExamWeight) Valid() bool {
	return w.Rank() < 3
}

// Mode restricts which questions a session draws from.
type Mode string

const (
	ModeSmart  Mode = "smart"
	ModeTopic  Mode = "topic"
	ModeDomain Mode = "domain"
)

// ParseMode normalizes a client supplied mode. An empty value means smart.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeSmart:
		return ModeSmart, nil
	case ModeTopic:
		return ModeTopic, nil
	case ModeDomain:
		return ModeDomain, nil
	default:
		return "", ErrInvalidMode
	}
}

// Topic is a static exam subject area.
type Topic struct {
	ID          string      `json:"id" yaml:"id"`
	Label       string      `json:"label" yaml:"label"`
	MacroDomain MacroDomain `json:"macroDomain" yaml:"macroDomain"`
	ExamWeight  ExamWeight  `json:"examWeight" yaml:"examWeight"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	Certification   string   `json:"certification" yaml:"certification"`
	TopicID         string   `json:"topicId" yaml:"topicId"`
	Text            string   `json:"text" yaml:"text"`
	Options         []Option `json:"options" yaml:"options"`
	CorrectOptionID string   `json:"correctOptionId" yaml:"correctOptionId"`
	Explanation     string   `json:"explanation" yaml:"explanation"`
	IsReinforcement bool     `json:"isReinforcement,omitempty" yaml:"-"`
}

// ClientQuestion is the view of a question that is safe to show before it is answered.
type ClientQuestion struct {
	ID              string   `json:"id"`
	Certification   string   `json:"certification"`
	TopicID         string   `json:"topicId"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	IsReinforcement bool     `json:"isReinforcement,omitempty"`
}

// ForClient strips the answer key and explanation.
func (q Question) ForClient() ClientQuestion {
	options := make([]Option, len(q.Options))
	copy(options, q.Options)
	return ClientQuestion{
		ID:              q.ID,
		Certification:   q.Certification,
		TopicID:         q.TopicID,
		Text:            q.Text,
		Options:         options,
		IsReinforcement: q.IsReinforcement,
	}
}

// TopicProgress tracks the learner's counts for a single topic.
type TopicProgress struct {
	TopicID      string      `json:"topicId"`
	Attempts     int         `json:"attempts"`
	Correct      int         `json:"correct"`
	Accuracy     int         `json:"accuracy"`
	Status       TopicStatus `json:"status"`
	MasteryLevel int         `json:"masteryLevel"`
}

// QuestionHistory is the spaced-repetition state of one answered question.
type QuestionHistory struct {
	LastAttempt          time.Time `json:"lastAttempt"`
	LastSeen             time.Time `json:"lastSeen"`
	NextReview           time.Time `json:"nextReview"`
	MasteryLevel         int       `json:"masteryLevel"`
	ConsecutiveSuccesses int       `json:"consecutiveSuccesses"`
	ErrorCount           int       `json:"errorCount"`
}

// MacroTopicProgress aggregates topics of one macro-domain. Always derived.
type MacroTopicProgress struct {
	Attempts     int         `json:"attempts"`
	Correct      int         `json:"correct"`
	Accuracy     int         `json:"accuracy"`
	MasteryLevel int         `json:"masteryLevel"`
	Status       TopicStatus `json:"status"`
}

// UserProgress is the aggregate root of a learner's state.
// LastSessionDate is a UTC calendar day (YYYY-MM-DD) or empty.
type UserProgress struct {
	UserID           string                             `json:"userId"`
	ReadinessScore   int                                `json:"readinessScore"`
	Streak           int                                `json:"streak"`
	LastSessionDate  string                             `json:"lastSessionDate"`
	Topics           map[string]TopicProgress           `json:"topics"`
	MacroTopics      map[MacroDomain]MacroTopicProgress `json:"macroTopics,omitempty"`
	QuestionsHistory map[string]QuestionHistory         `json:"questionsHistory"`
}

// Clone returns a deep copy that shares no maps with p.
func (p UserProgress) Clone() UserProgress {
	out := p
	out.Topics = make(map[string]TopicProgress, len(p.Topics))
	for id, t := range p.Topics {
		out.Topics[id] = t
	}
	out.QuestionsHistory = make(map[string]QuestionHistory, len(p.QuestionsHistory))
	for id, h := range p.QuestionsHistory {
		out.QuestionsHistory[id] = h
	}
	if p.MacroTopics != nil {
		out.MacroTopics = make(map[MacroDomain]MacroTopicProgress, len(p.MacroTopics))
		for d, m := range p.MacroTopics {
			out.MacroTopics[d] = m
		}
	}
	return out
}

// HistoryItem records one answer given during the current session.
type HistoryItem struct {
	QuestionID string `json:"questionId"`
	IsCorrect  bool   `json:"isCorrect"`
}
