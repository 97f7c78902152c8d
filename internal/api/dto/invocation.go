package dto

import (
	"encoding/json"
	"time"

	"go-fanout/internal/domain"

	"github.com/google/uuid"
)

type ListInvocationsQuery struct {
	Task  string `form:"task" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

type ErrorResponse struct {
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error"`
}

type InvocationResponse struct {
	ID         uuid.UUID       `json:"id"`
	WorkerID   string          `json:"worker_id"`
	TaskName   string          `json:"task_name"`
	Mode       string          `json:"mode,omitempty"`
	Status     string          `json:"status"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	Request    json.RawMessage `json:"request,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewInvocationResponse(inv *domain.Invocation) InvocationResponse {
	return InvocationResponse{
		ID:         inv.ID,
		WorkerID:   inv.WorkerID,
		TaskName:   inv.TaskName,
		Mode:       string(inv.Mode),
		Status:     string(inv.Status),
		ErrorKind:  string(inv.ErrorKind),
		Error:      inv.Error,
		DurationMS: inv.DurationMS,
		Request:    json.RawMessage(inv.Request),
		Result:     json.RawMessage(inv.Result),
		CreatedAt:  inv.CreatedAt,
	}
}
