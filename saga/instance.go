package saga

import (
	"encoding/json"
	"time"

	"github.com/go-seguros/sagabus/runtime/scheme"
	"github.com/pkg/errors"
)

const (
	StatusNotStarted         Status = "not_started"
	StatusRunning            Status = "running"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
	StatusCompensating       Status = "compensating"
	StatusCompensated        Status = "compensated"
	StatusCompensationFailed Status = "compensation_failed"
)

type Status string

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the saga reached a state it can't leave on its own
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCompensated || s == StatusCompensationFailed
}

func statusFromStr(str string) (Status, error) {
	switch s := Status(str); s {
	case StatusNotStarted, StatusRunning, StatusCompleted, StatusFailed, StatusCompensating, StatusCompensated, StatusCompensationFailed:
		return s, nil
	default:
		return "", errors.Errorf("unknown saga status %s", str)
	}
}

// Instance is the persisted state of one saga run.
//
// LastCompletedStep is the recovery cursor: -1 means nothing completed (or
// everything was compensated), otherwise it is the index of the last step whose
// completion was persisted.
type Instance struct {
	UID               string
	SagaType          string
	Status            Status
	CurrentStep       int
	LastCompletedStep int
	Payload           []byte
	ErrorMessage      string
	CorrelationID     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewInstance(uid, sagaType, correlationID string) *Instance {
	return &Instance{
		UID:               uid,
		SagaType:          sagaType,
		CorrelationID:     correlationID,
		Status:            StatusNotStarted,
		CurrentStep:       0,
		LastCompletedStep: -1,
	}
}

// AdvanceStep records that the step at stepIndex completed
func (i *Instance) AdvanceStep(stepIndex int) {
	i.LastCompletedStep = stepIndex
	i.CurrentStep = stepIndex + 1
	i.UpdatedAt = time.Now()
}

func (i *Instance) UpdateStatus(status Status, errorMessage string) {
	i.Status = status
	i.ErrorMessage = errorMessage
	i.UpdatedAt = time.Now()
}

// SetPayload serializes the saga payload for persistence
func (i *Instance) SetPayload(obj scheme.Object) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrapf(err, "marshalling payload of saga %s", i.UID)
	}

	i.Payload = b
	return nil
}

// PayloadInto fills the persisted payload into obj, which must be a pointer to
// the payload type the saga's definition was registered with
func (i *Instance) PayloadInto(obj scheme.Object) error {
	if len(i.Payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(i.Payload, obj); err != nil {
		return errors.Wrapf(err, "unmarshalling payload of saga %s", i.UID)
	}

	return nil
}

func (i *Instance) copy() *Instance {
	c := *i
	c.Payload = append([]byte(nil), i.Payload...)
	return &c
}
