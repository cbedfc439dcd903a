package saga

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/go-seguros/sagabus/runtime/scheme"
	"github.com/pkg/errors"
)

// Definition is an ordered set of steps making up one saga type. Definitions are
// immutable once built and safe to share between concurrent runs, all mutable
// state lives in the payload and the Instance.
type Definition struct {
	sagaType         string
	payloadPrototype scheme.Object
	steps            []Step
}

// NewDefinition builds a definition out of steps sorted by their Order.
// Duplicated orders are a configuration mistake and are rejected.
func NewDefinition(sagaType string, payloadPrototype scheme.Object, steps ...Step) (*Definition, error) {
	if sagaType == "" {
		return nil, errors.New("sagaType is required")
	}

	if payloadPrototype == nil {
		return nil, errors.New("payloadPrototype is required")
	}

	if len(steps) == 0 {
		return nil, errors.Errorf("saga %s must have at least one step", sagaType)
	}

	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order() < sorted[j].Order() })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Order() == sorted[i-1].Order() {
			return nil, errors.Errorf("saga %s has duplicated step order %d: %s and %s", sagaType, sorted[i].Order(), sorted[i-1].Name(), sorted[i].Name())
		}
	}

	return &Definition{sagaType: sagaType, payloadPrototype: payloadPrototype, steps: sorted}, nil
}

func (d *Definition) SagaType() string {
	return d.sagaType
}

func (d *Definition) Steps() []Step {
	steps := make([]Step, len(d.steps))
	copy(steps, d.steps)
	return steps
}

// NewPayload returns a fresh zero value of the payload type, used to rehydrate
// persisted payloads on resume
func (d *Definition) NewPayload() scheme.Object {
	return reflect.New(scheme.GetStructType(d.payloadPrototype)).Interface()
}

// Execute runs steps starting at fromStep. onStepCompleted is called after every
// successful step so the caller can persist progress; an error from it is treated
// the same as a step failure, except the failed-at step itself gets compensated too.
//
// On a step failure all previously completed steps are compensated in reverse
// order. A successful compensation yields a Failed result, a stuck one yields
// CompensationFailed.
func (d *Definition) Execute(ctx context.Context, payload scheme.Object, fromStep int, onStepCompleted func(stepIndex int) error) Result {
	if fromStep < 0 {
		fromStep = 0
	}

	for i := fromStep; i < len(d.steps); i++ {
		step := d.steps[i]

		res := runSafely(ctx, step.Name(), step.Execute, payload)

		if !res.Success {
			compensated := d.Compensate(ctx, payload, i-1)

			if compensated.Status == StatusCompensationFailed {
				return compensated
			}

			return FailedResult(res.ErrorMessage, res.Err, i-1)
		}

		if onStepCompleted != nil {
			if err := onStepCompleted(i); err != nil {
				// the step did complete, so it must be compensated as well
				compensated := d.Compensate(ctx, payload, i)

				if compensated.Status == StatusCompensationFailed {
					return compensated
				}

				return FailedResult(fmt.Sprintf("persisting completion of step %s: %s", step.Name(), err), err, i)
			}
		}
	}

	return SuccessResult(len(d.steps) - 1)
}

// Compensate undoes steps lastCompletedStep down to 0. It stops at the first
// compensation failure; the returned LastCompletedStep then points at the step
// whose compensation is still pending.
func (d *Definition) Compensate(ctx context.Context, payload scheme.Object, lastCompletedStep int) Result {
	if lastCompletedStep >= len(d.steps) {
		lastCompletedStep = len(d.steps) - 1
	}

	for i := lastCompletedStep; i >= 0; i-- {
		step := d.steps[i]

		res := runSafely(ctx, step.Name(), step.Compensate, payload)

		if !res.Success {
			return CompensationFailedResult(fmt.Sprintf("compensating step %s: %s", step.Name(), res.ErrorMessage), res.Err, i)
		}
	}

	return CompensatedResult(-1)
}

// runSafely converts a panicking step into a failed result so a single bad step
// can't take the whole process down
func runSafely(ctx context.Context, stepName string, action func(ctx context.Context, payload scheme.Object) StepResult, payload scheme.Object) (res StepResult) {
	defer func() {
		if r := recover(); r != nil {
			res = StepFailed(fmt.Sprintf("recovered from panic in step %s: %v", stepName, r))
		}
	}()

	return action(ctx, payload)
}
