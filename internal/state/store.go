// Package state persists tool input state per session and recovers from
// missing or corrupt entries by falling back to the tool's defaults.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/ruediste/diy-dc-converter/internal/repository"
)

// Validator is implemented by persisted state types.
type Validator interface {
	Validate() error
}

// Store loads and saves one tool's state. T is usually a pointer type;
// newDefault must return a fresh value on each call.
type Store[T Validator] struct {
	repo       repository.StateRepository
	tool       string
	newDefault func() T
}

func NewStore[T Validator](repo repository.StateRepository, tool string, newDefault func() T) *Store[T] {
	return &Store[T]{repo: repo, tool: tool, newDefault: newDefault}
}

// Default returns a fresh default state.
func (s *Store[T]) Default() T {
	return s.newDefault()
}

// Load returns the stored state of the session. Missing, undecodable and
// invalid state all yield the default; only the latter two are logged.
func (s *Store[T]) Load(ctx context.Context, sessionID string) T {
	v, err := s.load(ctx, sessionID)
	if err == nil {
		return v
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("tool", s.tool).
			Msg("Discarding persisted state, using defaults")
	}
	return s.newDefault()
}

func (s *Store[T]) load(ctx context.Context, sessionID string) (T, error) {
	var zero T

	data, err := s.repo.Load(ctx, sessionID, s.tool)
	if err != nil {
		return zero, err
	}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return zero, errors.New("state is null")
	}
	v := s.newDefault()
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, fmt.Errorf("failed to decode state: %w", err)
	}
	if err := v.Validate(); err != nil {
		return zero, fmt.Errorf("invalid state: %w", err)
	}
	return v, nil
}

// Save validates v and persists it.
func (s *Store[T]) Save(ctx context.Context, sessionID string, v T) error {
	if err := v.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.repo.Save(ctx, sessionID, s.tool, data); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Clear removes the stored state; later loads return the defaults.
func (s *Store[T]) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID, s.tool); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Reset replaces the stored state with the default and returns it.
func (s *Store[T]) Reset(ctx context.Context, sessionID string) (T, error) {
	v := s.newDefault()
	data, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.repo.Save(ctx, sessionID, s.tool, data); err != nil {
		return v, fmt.Errorf("failed to reset state: %w", err)
	}
	log.Info().Str("session_id", sessionID).Str("tool", s.tool).Msg("State reset to defaults")
	return v, nil
}
