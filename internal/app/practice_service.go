package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/engine"
)

// SessionTTL is how long a client may keep a session open before starting a new one.
const SessionTTL = 10 * time.Minute

// CatalogRepository loads reference data (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, certification string) (*catalog.Catalog, error)
}

// PracticeService contains the practice use cases. It keeps no learner state:
// every call carries the progress and session history it works on.
type PracticeService struct {
	catalogs      CatalogRepository
	certification string
	logger        *slog.Logger
	now           func() time.Time
	engineOpts    []engine.Option

	mu     sync.Mutex
	cat    *catalog.Catalog
	engine *engine.Engine
}

// ServiceOption customizes a PracticeService.
type ServiceOption func(*PracticeService)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *PracticeService) { s.now = now }
}

// WithEngineOptions forwards options to every engine the service builds.
func WithEngineOptions(opts ...engine.Option) ServiceOption {
	return func(s *PracticeService) { s.engineOpts = append(s.engineOpts, opts...) }
}

func NewPracticeService(catalogs CatalogRepository, certification string, logger *slog.Logger, opts ...ServiceOption) *PracticeService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PracticeService{
		catalogs:      catalogs,
		certification: certification,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// engineFor returns an engine over the current catalog, rebuilding it when the
// repository hands out a refreshed catalog.
func (s *PracticeService) engineFor(ctx context.Context) (*engine.Engine, error) {
	cat, err := s.catalogs.GetCatalog(ctx, s.certification)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", s.certification, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil && s.cat == cat {
		return s.engine, nil
	}
	opts := append([]engine.Option{engine.WithClock(s.now)}, s.engineOpts...)
	eng, err := engine.New(cat, opts...)
	if err != nil {
		return nil, err
	}
	s.cat, s.engine = cat, eng
	s.logger.Debug("engine ready", "certification", cat.Certification(), "questions", cat.QuestionCount())
	return eng, nil
}

// Catalog returns the reference data sessions are served from.
func (s *PracticeService) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	eng, err := s.engineFor(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Catalog(), nil
}

type StartInput struct {
	Progress domain.UserProgress `json:"progress"`
	Mode     domain.Mode         `json:"mode"`
	TargetID string              `json:"targetId"`
}

type StartOutput struct {
	SessionID      string                `json:"sessionId"`
	FirstQuestion  domain.ClientQuestion `json:"firstQuestion"`
	TotalQuestions int                   `json:"totalQuestions"`
	Mode           domain.Mode           `json:"mode"`
	TargetID       string                `json:"targetId,omitempty"`
	ExpiresAt      time.Time             `json:"expiresAt"`
}

// Start opens a session and returns its first question.
func (s *PracticeService) Start(ctx context.Context, in StartInput) (StartOutput, error) {
	eng, err := s.engineFor(ctx)
	if err != nil {
		return StartOutput{}, err
	}
	mode, err := checkTarget(eng.Catalog(), in.Mode, in.TargetID)
	if err != nil {
		return StartOutput{}, err
	}
	res, err := eng.StartSession(in.Progress, mode, in.TargetID)
	if err != nil {
		return StartOutput{}, err
	}
	s.logger.Info("session started",
		"session_id", res.SessionID,
		"mode", mode,
		"target_id", in.TargetID,
		"total_questions", res.TotalQuestions,
	)
	return StartOutput{
		SessionID:      res.SessionID,
		FirstQuestion:  res.Question,
		TotalQuestions: res.TotalQuestions,
		Mode:           mode,
		TargetID:       in.TargetID,
		ExpiresAt:      s.now().UTC().Add(SessionTTL),
	}, nil
}

type AnswerInput struct {
	Progress         domain.UserProgress  `json:"progress"`
	QuestionID       string               `json:"questionId"`
	SelectedOptionID string               `json:"selectedOptionId"`
	History          []domain.HistoryItem `json:"history"`
	SessionID        string               `json:"sessionId"`
	Mode             domain.Mode          `json:"mode"`
	TargetID         string               `json:"targetId"`
}

// SessionSummary is a running tally returned with every answer.
type SessionSummary struct {
	TotalSolved int    `json:"totalSolved"`
	LastResult  string `json:"lastResult"`
}

type AnswerOutput struct {
	engine.StepResult
	SessionSummary SessionSummary `json:"sessionSummary"`
}

// Answer scores one answer and picks what comes next. When the session has no
// next question the returned progress also records the finished session.
func (s *PracticeService) Answer(ctx context.Context, in AnswerInput) (AnswerOutput, error) {
	eng, err := s.engineFor(ctx)
	if err != nil {
		return AnswerOutput{}, err
	}
	now := s.now().UTC()
	res, err := eng.ProcessStep(engine.StepRequest{
		Progress:         in.Progress,
		QuestionID:       in.QuestionID,
		SelectedOptionID: in.SelectedOptionID,
		History:          in.History,
		SessionID:        in.SessionID,
		Mode:             in.Mode,
		TargetID:         in.TargetID,
		Now:              now,
	})
	if err != nil {
		return AnswerOutput{}, err
	}

	lastResult := "incorrect"
	if res.IsCorrect {
		lastResult = "correct"
	}
	if res.NextQuestion == nil {
		res.UpdatedProgress = engine.CompleteSession(res.UpdatedProgress, now)
		s.logger.Info("session completed",
			"session_id", in.SessionID,
			"readiness", res.UpdatedProgress.ReadinessScore,
			"streak", res.UpdatedProgress.Streak,
		)
	}
	return AnswerOutput{
		StepResult: res,
		SessionSummary: SessionSummary{
			TotalSolved: len(in.History) + 1,
			LastResult:  lastResult,
		},
	}, nil
}

// Validate checks progress against the model rules.
func (s *PracticeService) Validate(progress domain.UserProgress) engine.Verdict {
	return engine.Validate(progress)
}

// Topics lists the catalog topics in catalog order.
func (s *PracticeService) Topics(ctx context.Context) ([]domain.Topic, error) {
	eng, err := s.engineFor(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Catalog().Topics(), nil
}

// DefaultProgress returns a blank progress for the current catalog.
func (s *PracticeService) DefaultProgress(ctx context.Context, userID string) (domain.UserProgress, error) {
	eng, err := s.engineFor(ctx)
	if err != nil {
		return domain.UserProgress{}, err
	}
	return eng.NewProgress(userID), nil
}

// SelfCheck runs the engine integrity battery against the current catalog.
func (s *PracticeService) SelfCheck(ctx context.Context) (engine.SelfCheckReport, error) {
	eng, err := s.engineFor(ctx)
	if err != nil {
		return engine.SelfCheckReport{}, err
	}
	return engine.SelfCheck(eng), nil
}

// checkTarget rejects targets that name nothing in the catalog.
func checkTarget(cat *catalog.Catalog, raw domain.Mode, targetID string) (domain.Mode, error) {
	mode, err := domain.ParseMode(string(raw))
	if err != nil {
		return "", err
	}
	if targetID == "" {
		return mode, nil
	}
	switch mode {
	case domain.ModeTopic:
		if _, ok := cat.Topic(targetID); !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrTopicNotFound, targetID)
		}
	case domain.ModeDomain:
		if !domain.MacroDomain(targetID).Valid() {
			return "", fmt.Errorf("%w: %s", domain.ErrTopicNotFound, targetID)
		}
	}
	return mode, nil
}
