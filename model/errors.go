package model

import "errors"

var (
	// ErrConfiguration is returned for invalid sizing or provider settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmbedding is returned when the embedding service fails or returns a vector of the wrong length.
	ErrEmbedding = errors.New("embedding error")
	// ErrValidation is returned for malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrParse is returned when a completion cannot be parsed. It never leaves the synthesizer.
	ErrParse = errors.New("parse error")
	// ErrExecution is returned when a synthesized statement fails. It never leaves the orchestrator.
	ErrExecution = errors.New("execution error")
)
