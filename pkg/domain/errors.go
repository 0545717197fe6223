package domain

import (
	"errors"
	"fmt"
)

// ErrPreconditionViolation is the parent of every error caused by a caller whose view
// of the active regions no longer matches the engine. It is fatal for the episode.
var ErrPreconditionViolation = errors.New("precondition violation")

// ErrRegionNotActive is returned when an action targets a region outside the frontier.
var ErrRegionNotActive = fmt.Errorf("%w: region is not active", ErrPreconditionViolation)

// ErrActionOutOfBounds is returned when an action's dimension or magnitude is out of range.
var ErrActionOutOfBounds = fmt.Errorf("%w: action out of bounds", ErrPreconditionViolation)

// ErrMissingAction is returned when an active region receives no action in a batch.
var ErrMissingAction = fmt.Errorf("%w: missing action for active region", ErrPreconditionViolation)

// ErrEpisodeDone is returned when Step is called on an episode that already terminated.
var ErrEpisodeDone = fmt.Errorf("%w: episode is not active", ErrPreconditionViolation)

// ErrEpisodeNotFound is returned when an episode ID cannot be found.
var ErrEpisodeNotFound = errors.New("episode not found")

// ErrInvalidRule is returned when a rule has a range with left > right.
var ErrInvalidRule = errors.New("invalid rule")

// ErrInvalidConfig is returned when the environment configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")
