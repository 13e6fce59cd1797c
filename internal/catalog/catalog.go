package catalog

import (
	"errors"
	"fmt"

	"github.com/andreluis2005/cognira/internal/domain"
)

// Dataset is the serialized form of the reference data for one certification.
type Dataset struct {
	Certification string            `json:"certification" yaml:"certification"`
	Topics        []domain.Topic    `json:"topics" yaml:"topics"`
	Questions     []domain.Question `json:"questions" yaml:"questions"`
}

// Catalog is a validated, read-only view over a Dataset with indexed lookups.
// It is built once and shared; none of its methods mutate it.
type Catalog struct {
	certification  string
	topics         []domain.Topic
	questions      []domain.Question
	topicByID      map[string]int
	questionByID   map[string]int
	topicsByDomain map[domain.MacroDomain][]string
}

// New validates ds and indexes it. Every problem found is reported, joined under ErrInvalidCatalog.
func New(ds Dataset) (*Catalog, error) {
	if len(ds.Questions) == 0 {
		return nil, fmt.Errorf("%s: %w", ds.Certification, domain.ErrEmptyQuestionBank)
	}

	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	c := &Catalog{
		certification:  ds.Certification,
		topics:         make([]domain.Topic, 0, len(ds.Topics)),
		questions:      make([]domain.Question, 0, len(ds.Questions)),
		topicByID:      make(map[string]int, len(ds.Topics)),
		questionByID:   make(map[string]int, len(ds.Questions)),
		topicsByDomain: make(map[domain.MacroDomain][]string),
	}

	if len(ds.Topics) == 0 {
		report("no topics defined")
	}
	for _, t := range ds.Topics {
		switch {
		case t.ID == "":
			report("topic with empty id")
			continue
		case !t.MacroDomain.Valid():
			report("topic %s: unknown macro domain %q", t.ID, t.MacroDomain)
		case !t.ExamWeight.Valid():
			report("topic %s: unknown exam weight %q", t.ID, t.ExamWeight)
		}
		if _, dup := c.topicByID[t.ID]; dup {
			report("topic %s: duplicate id", t.ID)
			continue
		}
		c.topicByID[t.ID] = len(c.topics)
		c.topics = append(c.topics, t)
		c.topicsByDomain[t.MacroDomain] = append(c.topicsByDomain[t.MacroDomain], t.ID)
	}

	for _, q := range ds.Questions {
		if q.ID == "" {
			report("question with empty id")
			continue
		}
		if _, dup := c.questionByID[q.ID]; dup {
			report("question %s: duplicate id", q.ID)
			continue
		}
		if _, ok := c.topicByID[q.TopicID]; !ok {
			report("question %s: unknown topic %q", q.ID, q.TopicID)
		}
		if len(q.Options) < 2 {
			report("question %s: needs at least 2 options, has %d", q.ID, len(q.Options))
		}
		seen := make(map[string]struct{}, len(q.Options))
		hasCorrect := false
		for _, opt := range q.Options {
			if _, dup := seen[opt.ID]; dup {
				report("question %s: duplicate option id %q", q.ID, opt.ID)
			}
			seen[opt.ID] = struct{}{}
			if opt.ID == q.CorrectOptionID {
				hasCorrect = true
			}
		}
		if !hasCorrect {
			report("question %s: correct option %q is not one of its options", q.ID, q.CorrectOptionID)
		}

		q.IsReinforcement = false
		if q.Certification == "" {
			q.Certification = ds.Certification
		}
		q.Options = append([]domain.Option(nil), q.Options...)
		c.questionByID[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCatalog, errors.Join(problems...))
	}
	return c, nil
}

// Certification returns the certification the catalog belongs to.
func (c *Catalog) Certification() string {
	return c.certification
}

// Topics returns the topics in dataset order.
func (c *Catalog) Topics() []domain.Topic {
	return append([]domain.Topic(nil), c.topics...)
}

// TopicCount is the total number of topics used as the coverage denominator.
func (c *Catalog) TopicCount() int {
	return len(c.topics)
}

// Topic looks up a topic by id.
func (c *Catalog) Topic(id string) (domain.Topic, bool) {
	idx, ok := c.topicByID[id]
	if !ok {
		return domain.Topic{}, false
	}
	return c.topics[idx], true
}

// TopicsInDomain returns the ids of the topics grouped under d.
func (c *Catalog) TopicsInDomain(d domain.MacroDomain) []string {
	return append([]string(nil), c.topicsByDomain[d]...)
}

// Questions returns every question in dataset order.
func (c *Catalog) Questions() []domain.Question {
	return append([]domain.Question(nil), c.questions...)
}

// QuestionCount returns the size of the question bank.
func (c *Catalog) QuestionCount() int {
	return len(c.questions)
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (domain.Question, bool) {
	idx, ok := c.questionByID[id]
	if !ok {
		return domain.Question{}, false
	}
	return c.questions[idx], true
}

// Pool returns the questions a session in mode may draw from.
// Filtering only applies to topic and domain modes with a non-empty target.
func (c *Catalog) Pool(mode domain.Mode, targetID string) []domain.Question {
	if targetID == "" || mode == domain.ModeSmart {
		return c.Questions()
	}
	pool := make([]domain.Question, 0, len(c.questions))
	for _, q := range c.questions {
		switch mode {
		case domain.ModeTopic:
			if q.TopicID == targetID {
				pool = append(pool, q)
			}
		case domain.ModeDomain:
			if t, ok := c.Topic(q.TopicID); ok && string(t.MacroDomain) == targetID {
				pool = append(pool, q)
			}
		default:
			pool = append(pool, q)
		}
	}
	return pool
}

// Dataset rebuilds the serializable form, e.g. for caching or seeding.
func (c *Catalog) Dataset() Dataset {
	return Dataset{
		Certification: c.certification,
		Topics:        c.Topics(),
		Questions:     c.Questions(),
	}
}
