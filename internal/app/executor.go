package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/fee-quotation-service/internal/platform/logging"
)

// Operations run as Validate → Perform → Verify → Archive. Each step sees the
// shared state left by the previous ones; nothing is persisted by Archive
// unless Verify accepted what Perform produced.

// ExecutionStep names a step of an operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

var stepMessages = map[ExecutionStep]string{
	StepValidate: "input validation failed",
	StepPerform:  "operation failed",
	StepVerify:   "verification failed",
	StepArchive:  "state persistence failed",
}

// Executor runs operations and logs each step.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation defines the steps of a unit of work over state S. Nil steps are
// skipped.
type Operation[S any] struct {
	// Name identifies this operation for logging.
	Name string

	// Validate checks inputs and preconditions before any outbound call.
	Validate func(ctx context.Context, state S) error

	// Perform executes the side effect, usually a call to another system.
	Perform func(ctx context.Context, state S) error

	// Verify checks what Perform produced.
	Verify func(ctx context.Context, state S) error

	// Archive persists the verified state.
	Archive func(ctx context.Context, state S) error
}

type step[S any] struct {
	name ExecutionStep
	fn   func(ctx context.Context, state S) error
}

// Execute runs op against state and stops at the first failing step.
func Execute[S any](ctx context.Context, exec *Executor, op Operation[S], state S) error {
	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	steps := []step[S]{
		{StepValidate, op.Validate},
		{StepPerform, op.Perform},
		{StepVerify, op.Verify},
		{StepArchive, op.Archive},
	}

	for _, s := range steps {
		if s.fn == nil {
			continue
		}

		logger.DebugContext(ctx, "starting step", slog.String("step", string(s.name)))

		if err := s.fn(ctx, state); err != nil {
			level := slog.LevelError
			if s.name == StepValidate {
				level = slog.LevelWarn
			}

			logger.Log(ctx, level, "step failed",
				slog.String("step", string(s.name)),
				slog.Any("error", err),
			)

			return &ExecutionError{Step: s.name, Message: stepMessages[s.name], Cause: err}
		}
	}

	logger.InfoContext(ctx, "operation completed",
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

// IsExecutionError checks if an error occurred during execution.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
