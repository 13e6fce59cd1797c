package domain

import "errors"

var (
	// ErrSessionIDRequired is returned when a step is processed without a session id.
	ErrSessionIDRequired = errors.New("session id is required")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrTopicNotFound indicates a topic ID is not part of the catalog.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrInvalidMode indicates an unknown session mode.
	ErrInvalidMode = errors.New("invalid session mode")
	// ErrEmptyQuestionBank aborts startup when there are no questions to serve.
	ErrEmptyQuestionBank = errors.New("question bank is empty")
	// ErrMalformedIntervals aborts startup when the review interval table is unusable.
	ErrMalformedIntervals = errors.New("mastery interval table is malformed")
	// ErrInvalidCatalog wraps every reference data problem found at load time.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrCatalogNotFound indicates no reference data exists for a certification.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrSessionNotStarted is returned when a practice session is answered before it starts.
	ErrSessionNotStarted = errors.New("session not started")
	// ErrSessionFinished is returned when a practice session has no question left to answer.
	ErrSessionFinished = errors.New("session finished")
	// ErrProgressNotFound is returned by blob stores when nothing was saved under a key.
	ErrProgressNotFound = errors.New("progress not found")
)
