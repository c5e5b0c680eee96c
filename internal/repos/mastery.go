package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type MasteryRepo interface {
	Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, topicID string) (*types.TopicMastery, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.TopicMastery) error
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.TopicMastery, error)
	// ListDue returns topics with next_due <= asOf, most overdue first.
	ListDue(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, asOf time.Time) ([]*types.TopicMastery, error)
}

type masteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasteryRepo(db *gorm.DB, baseLog *logger.Logger) MasteryRepo {
	return &masteryRepo{db: db, log: baseLog.With("repo", "MasteryRepo")}
}

func (r *masteryRepo) Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, topicID string) (*types.TopicMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || topicID == "" {
		return nil, nil
	}
	var row types.TopicMastery
	err := transaction.WithContext(ctx).
		Where("student_id = ? AND topic_id = ?", studentID, topicID).
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

func (r *masteryRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.TopicMastery) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.StudentID == uuid.Nil || row.TopicID == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mastery", "easiness", "interval_days", "repetitions",
				"next_due", "last_reviewed", "subject", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *masteryRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.TopicMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.TopicMastery
	err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("topic_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *masteryRepo) ListDue(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, asOf time.Time) ([]*types.TopicMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.TopicMastery
	err := transaction.WithContext(ctx).
		Where("student_id = ? AND next_due <= ?", studentID, asOf).
		Order("next_due ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
