package engine

import (
	"fmt"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/google/uuid"
)

// MaxPendingReinforcements caps how many missed questions wait for a re-serve at a time.
const MaxPendingReinforcements = 3

// reinforcementGap is the minimum number of answers between a miss and its re-serve.
const reinforcementGap = 3

// DefaultIntervals maps a question mastery level to days until its next review.
var DefaultIntervals = []int{0, 1, 3, 7, 15, 30}

// Engine runs sessions against one catalog. It holds no per-user state and is safe for concurrent use.
type Engine struct {
	cat       *catalog.Catalog
	intervals []int
	newID     func() string
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithIDGenerator overrides session id generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithClock sets the time used when a step request carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIntervals replaces the review interval table.
func WithIntervals(days []int) Option {
	return func(e *Engine) { e.intervals = append([]int(nil), days...) }
}

// New validates its configuration; a failure here means the process cannot serve sessions.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil || cat.QuestionCount() == 0 {
		return nil, domain.ErrEmptyQuestionBank
	}
	e := &Engine{
		cat:       cat,
		intervals: append([]int(nil), DefaultIntervals...),
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := checkIntervals(e.intervals); err != nil {
		return nil, err
	}
	return e, nil
}

func checkIntervals(days []int) error {
	if len(days) != MaxMasteryLevel+1 {
		return fmt.Errorf("%w: want %d entries, got %d", domain.ErrMalformedIntervals, MaxMasteryLevel+1, len(days))
	}
	for i, d := range days {
		if d < 0 {
			return fmt.Errorf("%w: level %d has negative interval %d", domain.ErrMalformedIntervals, i, d)
		}
	}
	return nil
}

// Catalog returns the reference data the engine serves from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// NewProgress returns a default progress for userID.
func (e *Engine) NewProgress(userID string) domain.UserProgress {
	return NewProgress(e.cat, userID)
}

// StartResult is the opening of a session.
type StartResult struct {
	SessionID      string                `json:"sessionId"`
	Question       domain.ClientQuestion `json:"question"`
	TotalQuestions int                   `json:"totalQuestions"`
}

// StartSession opens a session and selects its first question.
func (e *Engine) StartSession(progress domain.UserProgress, mode domain.Mode, targetID string) (StartResult, error) {
	mode, err := normalizeMode(mode)
	if err != nil {
		return StartResult{}, err
	}
	sessionID := e.newID()
	q := SelectNext(e.cat, progress, nil, SessionRNG(sessionID, progress, 0), mode, targetID)
	return StartResult{
		SessionID:      sessionID,
		Question:       q.ForClient(),
		TotalQuestions: min(len(e.cat.Pool(mode, targetID)), SessionSize),
	}, nil
}

// StepRequest carries everything needed to replay one step of a session.
type StepRequest struct {
	Progress         domain.UserProgress
	QuestionID       string
	SelectedOptionID string
	History          []domain.HistoryItem
	SessionID        string
	Mode             domain.Mode
	TargetID         string
	Now              time.Time
}

// StepResult is the outcome of one answer.
type StepResult struct {
	IsCorrect       bool                   `json:"isCorrect"`
	Explanation     string                 `json:"explanation"`
	CorrectOptionID string                 `json:"correctOptionId"`
	NextQuestion    *domain.ClientQuestion `json:"nextQuestion"`
	UpdatedProgress domain.UserProgress    `json:"updatedProgress"`
	TotalQuestions  int                    `json:"totalQuestions"`
}

// ProcessStep folds an answer into a copy of the progress and decides what comes next.
// The request's progress and history are never modified.
func (e *Engine) ProcessStep(req StepRequest) (StepResult, error) {
	if req.SessionID == "" {
		return StepResult{}, domain.ErrSessionIDRequired
	}
	mode, err := normalizeMode(req.Mode)
	if err != nil {
		return StepResult{}, err
	}
	question, ok := e.cat.Question(req.QuestionID)
	if !ok {
		return StepResult{}, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, req.QuestionID)
	}

	now := req.Now
	if now.IsZero() {
		now = e.now()
	}
	now = now.UTC()

	isCorrect := req.SelectedOptionID == question.CorrectOptionID
	updated := req.Progress.Clone()

	qh := e.reviewQuestion(updated.QuestionsHistory, question.ID, isCorrect, now)
	updated.QuestionsHistory[question.ID] = qh
	updated.QuestionsHistory = compressHistory(updated.QuestionsHistory, MaxHistorySize)

	topic, ok := updated.Topics[question.TopicID]
	if !ok {
		topic = emptyTopic(question.TopicID)
	}
	topic.TopicID = question.TopicID
	topic.Attempts = max(topic.Attempts, 0) + 1
	topic.Correct = max(topic.Correct, 0)
	if isCorrect {
		topic.Correct++
	}
	topic.Correct = min(topic.Correct, topic.Attempts)
	topic.Accuracy = Accuracy(topic.Correct, topic.Attempts)
	topic.Status = TopicStatus(topic.Attempts, topic.Accuracy)
	topic.MasteryLevel = clamp(max(topic.MasteryLevel, qh.MasteryLevel), 0, MaxMasteryLevel)
	updated.Topics[question.TopicID] = topic

	updated.MacroTopics = DeriveMacroTopics(e.cat, updated.Topics)
	updated.ReadinessScore = ReadinessScore(e.cat, updated)

	pool := e.cat.Pool(mode, req.TargetID)
	current := make([]domain.HistoryItem, 0, len(req.History)+1)
	current = append(current, req.History...)
	current = append(current, domain.HistoryItem{QuestionID: question.ID, IsCorrect: isCorrect})

	var next *domain.ClientQuestion
	pending := pendingReinforcements(current, pool)
	if len(pending) > 0 && !strongFloorDue(e.cat, updated, current, mode, pool) {
		q, _ := e.cat.Question(pending[0])
		q.IsReinforcement = true
		cq := q.ForClient()
		next = &cq
	} else if len(current) < SessionSize {
		rng := SessionRNG(req.SessionID, updated, len(current))
		cq := SelectNext(e.cat, updated, current, rng, mode, req.TargetID).ForClient()
		next = &cq
	}

	return StepResult{
		IsCorrect:       isCorrect,
		Explanation:     question.Explanation,
		CorrectOptionID: question.CorrectOptionID,
		NextQuestion:    next,
		UpdatedProgress: updated,
		TotalQuestions:  min(len(pool), SessionSize),
	}, nil
}

// reviewQuestion applies one answer to a question's spaced-repetition state.
func (e *Engine) reviewQuestion(history map[string]domain.QuestionHistory, questionID string, isCorrect bool, now time.Time) domain.QuestionHistory {
	qh, ok := history[questionID]
	if !ok {
		qh = domain.QuestionHistory{LastAttempt: now, LastSeen: now, NextReview: now}
	}
	level := clamp(qh.MasteryLevel, 0, MaxMasteryLevel)
	if isCorrect {
		qh.ConsecutiveSuccesses = max(qh.ConsecutiveSuccesses, 0) + 1
		qh.MasteryLevel = min(level+1, MaxMasteryLevel)
	} else {
		qh.ConsecutiveSuccesses = 0
		qh.MasteryLevel = max(level-1, 0)
		qh.ErrorCount = max(qh.ErrorCount, 0) + 1
	}
	qh.NextReview = now.AddDate(0, 0, e.intervals[qh.MasteryLevel])
	qh.LastAttempt = now
	qh.LastSeen = now
	return qh
}

// pendingReinforcements lists misses still owed a re-serve, oldest first, capped.
// A miss qualifies when it is the last occurrence of its question, the question
// is in the mode pool, and enough answers followed it. A miss on a question
// that was already served earlier in the session is a missed re-serve and does
// not qualify again.
func pendingReinforcements(current []domain.HistoryItem, pool []domain.Question) []string {
	inPool := make(map[string]struct{}, len(pool))
	for _, q := range pool {
		inPool[q.ID] = struct{}{}
	}
	firstIndex := make(map[string]int, len(current))
	lastIndex := make(map[string]int, len(current))
	for i, h := range current {
		if _, ok := firstIndex[h.QuestionID]; !ok {
			firstIndex[h.QuestionID] = i
		}
		lastIndex[h.QuestionID] = i
	}

	var pending []string
	for i, h := range current {
		if h.IsCorrect || lastIndex[h.QuestionID] != i || firstIndex[h.QuestionID] != i {
			continue
		}
		if _, ok := inPool[h.QuestionID]; !ok {
			continue
		}
		if len(current)-i < reinforcementGap {
			continue
		}
		pending = append(pending, h.QuestionID)
		if len(pending) == MaxPendingReinforcements {
			break
		}
	}
	return pending
}

func normalizeMode(mode domain.Mode) (domain.Mode, error) {
	return domain.ParseMode(string(mode))
}
