// Package snapshot converts user progress to and from its stored document form.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andreluis2005/cognira/internal/catalog"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/engine"
)

// CurrentVersion is the document version written by Encode.
const CurrentVersion = 2

// ErrEmpty is returned by Decode when there is nothing to decode.
var ErrEmpty = errors.New("snapshot: empty document")

// ErrUnsupportedVersion is returned by Decode for documents newer than this build.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

type document struct {
	Version          int                               `json:"version"`
	UserID           string                            `json:"userId"`
	ReadinessScore   int                               `json:"readinessScore"`
	Streak           int                               `json:"streak"`
	LastSessionDate  string                            `json:"lastSessionDate"`
	Topics           map[string]domain.TopicProgress   `json:"topics"`
	QuestionsHistory map[string]domain.QuestionHistory `json:"questionsHistory"`
}

// Encode renders progress as a current-version document. Macro-topic aggregates are
// derived data and are not stored.
func Encode(progress domain.UserProgress) ([]byte, error) {
	doc := document{
		Version:          CurrentVersion,
		UserID:           progress.UserID,
		ReadinessScore:   progress.ReadinessScore,
		Streak:           progress.Streak,
		LastSessionDate:  progress.LastSessionDate,
		Topics:           progress.Topics,
		QuestionsHistory: progress.QuestionsHistory,
	}
	if doc.Topics == nil {
		doc.Topics = map[string]domain.TopicProgress{}
	}
	if doc.QuestionsHistory == nil {
		doc.QuestionsHistory = map[string]domain.QuestionHistory{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode progress: %w", err)
	}
	return out, nil
}

// Decode always returns a usable progress for cat. When data is empty or cannot be
// decoded it returns the default progress together with the reason, which callers
// should log and otherwise ignore. Legacy documents are migrated; every derived
// field is recomputed from the stored counts.
func Decode(data []byte, cat *catalog.Catalog) (domain.UserProgress, error) {
	if len(data) == 0 {
		return engine.NewProgress(cat, ""), ErrEmpty
	}

	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return engine.NewProgress(cat, ""), fmt.Errorf("decode progress: %w", err)
	}

	var (
		progress domain.UserProgress
		err      error
	)
	switch {
	case probe.Version == nil && looksLegacy(data):
		progress, err = decodeLegacy(data)
	case probe.Version == nil, *probe.Version == CurrentVersion:
		progress, err = decodeCurrent(data)
	case *probe.Version == 1:
		progress, err = decodeLegacy(data)
	default:
		return engine.NewProgress(cat, ""), fmt.Errorf("%w: %d", ErrUnsupportedVersion, *probe.Version)
	}
	if err != nil {
		return engine.NewProgress(cat, ""), fmt.Errorf("decode progress: %w", err)
	}
	return normalize(progress, cat), nil
}

func decodeCurrent(data []byte) (domain.UserProgress, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.UserProgress{}, err
	}
	return domain.UserProgress{
		UserID:           doc.UserID,
		ReadinessScore:   doc.ReadinessScore,
		Streak:           doc.Streak,
		LastSessionDate:  doc.LastSessionDate,
		Topics:           doc.Topics,
		QuestionsHistory: doc.QuestionsHistory,
	}, nil
}

// normalize adds catalog topics the document does not know about and recomputes
// derived fields. Topics unknown to the catalog are kept.
func normalize(p domain.UserProgress, cat *catalog.Catalog) domain.UserProgress {
	p = p.Clone()
	for _, t := range cat.Topics() {
		if _, ok := p.Topics[t.ID]; !ok {
			p.Topics[t.ID] = domain.TopicProgress{TopicID: t.ID, Status: domain.StatusNotEvaluated}
		}
	}
	for id, qh := range p.QuestionsHistory {
		qh.LastAttempt = qh.LastAttempt.UTC()
		qh.LastSeen = qh.LastSeen.UTC()
		qh.NextReview = qh.NextReview.UTC()
		p.QuestionsHistory[id] = qh
	}
	return engine.Recompute(cat, p)
}
