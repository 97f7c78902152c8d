package repository

import (
	"context"

	"go-fanout/internal/core/ports"
	"go-fanout/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxListLimit = 500

type invocationRepository struct {
	db *gorm.DB
}

// NewInvocationRepository creates a new instance of InvocationRepository
func NewInvocationRepository(db *gorm.DB) ports.InvocationRepository {
	return &invocationRepository{db: db}
}

func (r *invocationRepository) Record(ctx context.Context, inv *domain.Invocation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invocation, error) {
	var inv domain.Invocation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invocationRepository) ListByTask(ctx context.Context, taskName string, limit int) ([]domain.Invocation, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var invs []domain.Invocation
	err := r.db.WithContext(ctx).
		Where("task_name = ?", taskName).
		Order("created_at DESC").
		Limit(limit).
		Find(&invs).Error
	return invs, err
}
