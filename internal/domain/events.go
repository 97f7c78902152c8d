package domain

import (
	"github.com/google/uuid"
)

type InvocationEventType string

const (
	InvocationEventCompleted InvocationEventType = "completed"
	InvocationEventFailed    InvocationEventType = "failed"
)

// InvocationEvent is published by the worker after every invocation.
// The scheduler decides what to do with a failed one; the worker never
// retries on its own.
type InvocationEvent struct {
	Type         InvocationEventType `json:"type"`
	InvocationID uuid.UUID           `json:"invocation_id"`
	WorkerID     string              `json:"worker_id"`
	TaskName     string              `json:"task_name"`
	Mode         Mode                `json:"mode,omitempty"`

	// Set when completed.
	OutputPath string `json:"output_path,omitempty"`
	Children   int    `json:"children,omitempty"`

	// Set when failed.
	Kind  ErrorKind `json:"kind,omitempty"`
	Error string    `json:"error,omitempty"`
}

// CompletedEvent builds the event for a successful invocation.
func CompletedEvent(inv *Invocation, out *TaskDescriptor) InvocationEvent {
	return InvocationEvent{
		Type:         InvocationEventCompleted,
		InvocationID: inv.ID,
		WorkerID:     inv.WorkerID,
		TaskName:     inv.TaskName,
		Mode:         inv.Mode,
		OutputPath:   out.OutputPath,
		Children:     len(out.Children),
	}
}

// FailedEvent builds the event for a failed invocation.
func FailedEvent(inv *Invocation) InvocationEvent {
	return InvocationEvent{
		Type:         InvocationEventFailed,
		InvocationID: inv.ID,
		WorkerID:     inv.WorkerID,
		TaskName:     inv.TaskName,
		Mode:         inv.Mode,
		Kind:         inv.ErrorKind,
		Error:        inv.Error,
	}
}
