package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type InvocationStatus string

const (
	InvocationSucceeded InvocationStatus = "SUCCEEDED"
	InvocationFailed    InvocationStatus = "FAILED"
)

// Invocation is one ledger entry: a record of a single worker run.
type Invocation struct {
	ID       uuid.UUID        `gorm:"type:uuid;primary_key;"`
	WorkerID string           `gorm:"type:varchar(100);index"`
	TaskName string           `gorm:"type:varchar(255);index"`
	Mode     Mode             `gorm:"type:varchar(20);index"`
	Status   InvocationStatus `gorm:"type:varchar(20);index"`

	ErrorKind ErrorKind `gorm:"type:varchar(40)"`
	Error     string    `gorm:"type:text"`

	Request datatypes.JSON `gorm:"type:jsonb"`
	Result  datatypes.JSON `gorm:"type:jsonb"`

	DurationMS int64

	CreatedAt time.Time
}

func NewInvocation(workerID string, request []byte) *Invocation {
	return &Invocation{
		ID:        uuid.New(),
		WorkerID:  workerID,
		Request:   datatypes.JSON(request),
		CreatedAt: time.Now(),
	}
}

// Succeed marks the invocation as succeeded with the emitted record.
func (i *Invocation) Succeed(mode Mode, result []byte) {
	i.Mode = mode
	i.Status = InvocationSucceeded
	i.Result = datatypes.JSON(result)
	i.DurationMS = time.Since(i.CreatedAt).Milliseconds()
}

// Fail marks the invocation as failed. Mode may be empty when the
// failure happened before a mode was selected.
func (i *Invocation) Fail(mode Mode, err error) {
	i.Mode = mode
	i.Status = InvocationFailed
	i.Error = err.Error()
	if kind, ok := KindOf(err); ok {
		i.ErrorKind = kind
	}
	i.DurationMS = time.Since(i.CreatedAt).Milliseconds()
}
