package saga

import (
	"context"

	"github.com/go-seguros/sagabus/runtime/scheme"
)

// Step is a single unit of work in a saga. Execute moves the transaction forward,
// Compensate undoes whatever Execute did. Both receive the saga's payload and may
// mutate it; the engine persists the payload after every completed step.
//
// Steps must be idempotent: a crash between executing a step and persisting its
// completion means the step runs again on resume.
type Step interface {
	// Name identifies the step in logs and in the saga's record
	Name() string
	// Order defines the position of the step in the saga, lower runs first.
	// Orders must be unique within one saga.
	Order() int
	Execute(ctx context.Context, payload scheme.Object) StepResult
	Compensate(ctx context.Context, payload scheme.Object) StepResult
}
