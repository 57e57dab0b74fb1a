package repositories

import (
	"context"

	"gorm.io/gorm"

	"examprep/internal/models/db_models"
)

type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *db_models.TestAttempt) error
	ListAttempts(ctx context.Context, subtopic string, page, pageSize int) ([]db_models.TestAttempt, int64, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) CreateAttempt(ctx context.Context, attempt *db_models.TestAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// ListAttempts returns newest first; an empty subtopic lists all subtopics.
func (r *attemptRepository) ListAttempts(ctx context.Context, subtopic string, page, pageSize int) ([]db_models.TestAttempt, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&db_models.TestAttempt{}).
		Scopes(bySubtopic(subtopic)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []db_models.TestAttempt
	err := r.db.WithContext(ctx).
		Scopes(bySubtopic(subtopic), paginate(page, pageSize)).
		Order("finished_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func bySubtopic(subtopic string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if subtopic == "" {
			return db
		}
		return db.Where("subtopic = ?", subtopic)
	}
}

func paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset := (page - 1) * pageSize
		return db.Offset(offset).Limit(pageSize)
	}
}

// noopAttemptRepository is used when no database is configured.
type noopAttemptRepository struct{}

func NewNoopAttemptRepository() AttemptRepository {
	return noopAttemptRepository{}
}

func (noopAttemptRepository) CreateAttempt(context.Context, *db_models.TestAttempt) error {
	return nil
}

func (noopAttemptRepository) ListAttempts(context.Context, string, int, int) ([]db_models.TestAttempt, int64, error) {
	return []db_models.TestAttempt{}, 0, nil
}
