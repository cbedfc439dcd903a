package saga

// StepResult is what a step reports back to the engine. A failed result triggers
// compensation of everything completed before it.
type StepResult struct {
	Success      bool
	ErrorMessage string
	Err          error
}

func StepSuccess() StepResult {
	return StepResult{Success: true}
}

// StepFailed reports a business failure with a message meant for the saga's record
func StepFailed(errorMessage string) StepResult {
	return StepResult{Success: false, ErrorMessage: errorMessage}
}

// StepFailedErr reports an infrastructure failure keeping the original error around
func StepFailedErr(err error) StepResult {
	return StepResult{Success: false, ErrorMessage: err.Error(), Err: err}
}

// Result is the outcome of a saga run.
//
// LastCompletedStep reports forward progress: on failure it points at the last
// step that executed successfully before the saga turned around, regardless of
// how far the compensation got afterwards.
type Result struct {
	Success           bool
	Status            Status
	ErrorMessage      string
	Err               error
	LastCompletedStep int
}

func SuccessResult(lastCompletedStep int) Result {
	return Result{Success: true, Status: StatusCompleted, LastCompletedStep: lastCompletedStep}
}

// FailedResult reports a saga that failed and was fully compensated
func FailedResult(errorMessage string, err error, lastCompletedStep int) Result {
	return Result{Status: StatusFailed, ErrorMessage: errorMessage, Err: err, LastCompletedStep: lastCompletedStep}
}

// CompensatedResult reports a compensation run that undid every completed step
func CompensatedResult(lastCompletedStep int) Result {
	return Result{Status: StatusCompensated, LastCompletedStep: lastCompletedStep}
}

// CompensationFailedResult reports a compensation run that got stuck. Manual
// intervention is required, the engine never retries it on its own.
func CompensationFailedResult(errorMessage string, err error, lastCompletedStep int) Result {
	return Result{Status: StatusCompensationFailed, ErrorMessage: errorMessage, Err: err, LastCompletedStep: lastCompletedStep}
}
