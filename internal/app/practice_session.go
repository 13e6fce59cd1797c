package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andreluis2005/cognira/internal/domain"
)

// PracticeSession is one learner's in-progress session held by a long-lived
// connection (a WebSocket or the terminal). It owns the progress and history
// that stateless callers would otherwise carry back and forth.
type PracticeSession struct {
	service  *PracticeService
	mode     domain.Mode
	targetID string
	now      func() time.Time

	mu        sync.Mutex
	id        string
	startedAt time.Time
	progress  domain.UserProgress
	history   []domain.HistoryItem
	current   *domain.ClientQuestion
	total     int
}

// NewPracticeSession prepares a session; nothing is selected until Start.
func (s *PracticeService) NewPracticeSession(mode domain.Mode, targetID string) *PracticeSession {
	return &PracticeSession{
		service:  s,
		mode:     mode,
		targetID: targetID,
		now:      s.now,
	}
}

// Start opens the session over progress. Calling it again restarts the session.
func (p *PracticeSession) Start(ctx context.Context, progress domain.UserProgress) (StartOutput, error) {
	out, err := p.service.Start(ctx, StartInput{Progress: progress, Mode: p.mode, TargetID: p.targetID})
	if err != nil {
		return StartOutput{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	first := out.FirstQuestion
	p.id = out.SessionID
	p.mode = out.Mode
	p.startedAt = p.now()
	p.progress = progress.Clone()
	p.history = nil
	p.current = &first
	p.total = out.TotalQuestions
	return out, nil
}

// Answer submits an answer to the current question.
func (p *PracticeSession) Answer(ctx context.Context, questionID, optionID string) (AnswerOutput, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.id == "":
		return AnswerOutput{}, domain.ErrSessionNotStarted
	case p.current == nil:
		return AnswerOutput{}, domain.ErrSessionFinished
	case questionID != "" && questionID != p.current.ID:
		return AnswerOutput{}, fmt.Errorf("%w: %s is not the current question", domain.ErrQuestionNotFound, questionID)
	}

	out, err := p.service.Answer(ctx, AnswerInput{
		Progress:         p.progress,
		QuestionID:       p.current.ID,
		SelectedOptionID: optionID,
		History:          p.history,
		SessionID:        p.id,
		Mode:             p.mode,
		TargetID:         p.targetID,
	})
	if err != nil {
		return AnswerOutput{}, err
	}

	p.history = append(p.history, domain.HistoryItem{QuestionID: p.current.ID, IsCorrect: out.IsCorrect})
	p.progress = out.UpdatedProgress
	p.current = out.NextQuestion
	p.total = out.TotalQuestions
	return out, nil
}

// ID returns the session id, empty before Start.
func (p *PracticeSession) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

// Current returns the question awaiting an answer.
func (p *PracticeSession) Current() (domain.ClientQuestion, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return domain.ClientQuestion{}, false
	}
	return *p.current, true
}

// Progress returns a copy of the learner's progress as of the last answer.
func (p *PracticeSession) Progress() domain.UserProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress.Clone()
}

// History returns the answers given so far.
func (p *PracticeSession) History() []domain.HistoryItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.HistoryItem(nil), p.history...)
}

// Done reports whether a started session has no question left.
func (p *PracticeSession) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id != "" && p.current == nil
}

// Expired reports whether the session outlived SessionTTL.
func (p *PracticeSession) Expired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id != "" && p.now().Sub(p.startedAt) > SessionTTL
}

// Total is the number of selector-driven questions in the session.
func (p *PracticeSession) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}
