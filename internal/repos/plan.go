package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// ErrActivePlanExists maps the partial unique index on (student_id, subject)
// for active plans.
var ErrActivePlanExists = errors.New("an active plan already exists for this student and subject")

type PlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plan *types.StudyPlan) (*types.StudyPlan, error)
	GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.StudyPlan, error)
	ListActive(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudyPlan, error)
	Update(ctx context.Context, tx *gorm.DB, plan *types.StudyPlan) error
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) Create(ctx context.Context, tx *gorm.DB, plan *types.StudyPlan) (*types.StudyPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if plan == nil {
		return nil, nil
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Status == "" {
		plan.Status = types.PlanStatusActive
	}
	if err := transaction.WithContext(ctx).Create(plan).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil, ErrActivePlanExists
		}
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) GetByID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.StudyPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if planID == uuid.Nil {
		return nil, nil
	}
	var row types.StudyPlan
	err := transaction.WithContext(ctx).
		Where("id = ?", planID).
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

func (r *planRepo) ListActive(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudyPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.StudyPlan
	err := transaction.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, types.PlanStatusActive).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *planRepo) Update(ctx context.Context, tx *gorm.DB, plan *types.StudyPlan) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if plan == nil || plan.ID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(plan).Error
}
