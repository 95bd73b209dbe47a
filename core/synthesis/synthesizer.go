package synthesis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/taskrag/core/pipeline"
	"github.com/siherrmann/taskrag/model"
)

// State is a step of one synthesis request.
type State string

const (
	StateStart       State = "start"
	StatePromptSent  State = "prompt_sent"
	StateRawReceived State = "raw_received"
	StateParsed      State = "parsed"
	StateParseFailed State = "parse_failed"
	StateValidated   State = "validated"
	StateFallback    State = "fallback"
	StateDone        State = "done"
)

// Synthesizer turns questions into query triples using a language model.
type Synthesizer struct {
	complete pipeline.CompleteFunc
	schema   string
	logger   *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithSchema replaces the schema description sent to the model
func WithSchema(schema string) Option {
	return func(s *Synthesizer) {
		s.schema = schema
	}
}

// WithLogger sets the logger for stage transitions and fallbacks
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSynthesizer creates a synthesizer for the tasks schema.
// A nil complete func is allowed and makes every request take the fallback.
func NewSynthesizer(complete pipeline.CompleteFunc, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		complete: complete,
		schema:   TaskSchema,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns the query triple for the question. It never fails:
// any error in prompting or parsing, and any panic, yields model.FallbackQuery.
// The returned states are the transitions the request went through.
func (s *Synthesizer) Synthesize(ctx context.Context, question string) (query *model.SynthesizedQuery, states []State) {
	states = []State{StateStart}
	transition := func(state State) {
		states = append(states, state)
		s.logger.Debug("Synthesizer transition", slog.String("state", string(state)))
	}

	defer func() {
		if r := recover(); r != nil {
			query = s.fallback(fmt.Errorf("panic: %v", r), transition)
			transition(StateDone)
		}
	}()

	if s.complete == nil {
		query = s.fallback(fmt.Errorf("%w: no completion backend", model.ErrConfiguration), transition)
		transition(StateDone)
		return query, states
	}

	prompt := BuildPrompt(s.schema, question)
	transition(StatePromptSent)

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		query = s.fallback(err, transition)
		transition(StateDone)
		return query, states
	}
	transition(StateRawReceived)

	query, err = ParseCompletion(raw)
	if err != nil {
		transition(StateParseFailed)
		query = s.fallback(err, transition)
		transition(StateDone)
		return query, states
	}
	transition(StateParsed)

	// Execution validates the SQL; a failure is reported back through Fallback.
	transition(StateValidated)
	transition(StateDone)

	return query, states
}

// Fallback returns the fallback triple for a failure that happened after synthesis,
// such as executing the synthesized query.
func (s *Synthesizer) Fallback(err error) *model.SynthesizedQuery {
	return s.fallback(err, func(state State) {
		s.logger.Debug("Synthesizer transition", slog.String("state", string(state)))
	})
}

func (s *Synthesizer) fallback(err error, transition func(State)) *model.SynthesizedQuery {
	transition(StateFallback)
	s.logger.Warn("Falling back to default query", slog.String("error", err.Error()))
	return model.FallbackQuery()
}
