package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type MemoryRepo interface {
	Append(ctx context.Context, tx *gorm.DB, memory *types.LearningMemory) (*types.LearningMemory, error)
	// ListByStudent returns memories for a student, optionally narrowed to a
	// subject (memories tagged "general" always match a subject filter).
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) ([]*types.LearningMemory, error)
	IncrementRetrievalCounts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	CountByKindsSince(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, kinds []types.MemoryKind, since time.Time) (int64, error)
	PruneOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, keepKinds []types.MemoryKind) (int64, error)
}

type memoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRepo {
	return &memoryRepo{db: db, log: baseLog.With("repo", "MemoryRepo")}
}

func (r *memoryRepo) Append(ctx context.Context, tx *gorm.DB, memory *types.LearningMemory) (*types.LearningMemory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if memory == nil {
		return nil, nil
	}
	if memory.ID == uuid.Nil {
		memory.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(memory).Error; err != nil {
		return nil, err
	}
	return memory, nil
}

func (r *memoryRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, subject string) ([]*types.LearningMemory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil, nil
	}
	q := transaction.WithContext(ctx).Where("student_id = ?", studentID)
	if subject != "" {
		q = q.Where("subject = ? OR subject = ?", subject, "general")
	}
	var rows []*types.LearningMemory
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *memoryRepo) IncrementRetrievalCounts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.LearningMemory{}).
		Where("id IN ?", ids).
		UpdateColumn("retrieval_count", gorm.Expr("retrieval_count + 1")).Error
}

func (r *memoryRepo) CountByKindsSince(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, kinds []types.MemoryKind, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || len(kinds) == 0 {
		return 0, nil
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.LearningMemory{}).
		Where("student_id = ? AND kind IN ? AND created_at >= ?", studentID, kinds, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PruneOlderThan hard-deletes memories created before cutoff, keeping the
// listed kinds untouched. Memory rows are append-only everywhere else.
func (r *memoryRepo) PruneOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time, keepKinds []types.MemoryKind) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("created_at < ?", cutoff)
	if len(keepKinds) > 0 {
		q = q.Where("kind NOT IN ?", keepKinds)
	}
	res := q.Delete(&types.LearningMemory{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
