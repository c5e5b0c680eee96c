package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type StudentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, student *types.StudentProfile) (*types.StudentProfile, error)
	GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.StudentProfile, error)
	Update(ctx context.Context, tx *gorm.DB, student *types.StudentProfile) error
	List(ctx context.Context, tx *gorm.DB) ([]*types.StudentProfile, error)
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return &studentRepo{db: db, log: baseLog.With("repo", "StudentRepo")}
}

func (r *studentRepo) Create(ctx context.Context, tx *gorm.DB, student *types.StudentProfile) (*types.StudentProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if student == nil {
		return nil, nil
	}
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(student).Error; err != nil {
		return nil, err
	}
	return student, nil
}

func (r *studentRepo) GetByID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*types.StudentProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil, nil
	}
	var row types.StudentProfile
	err := transaction.WithContext(ctx).
		Where("id = ?", studentID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *studentRepo) Update(ctx context.Context, tx *gorm.DB, student *types.StudentProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if student == nil || student.ID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(student).Error
}

func (r *studentRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.StudentProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.StudentProfile
	if err := transaction.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
