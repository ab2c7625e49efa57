package port

import (
	"context"

	"github.com/garyjia/lotflow/internal/domain/entity"
)

// CMLotRepository defines persistence operations for CMLot
type CMLotRepository interface {
	Create(ctx context.Context, lot *entity.CMLot) error
	GetByID(ctx context.Context, id int64) (*entity.CMLot, error)
	GetByCode(ctx context.Context, code string) (*entity.CMLot, error)
	List(ctx context.Context, filter entity.LotFilter) ([]*entity.CMLot, error)

	// CompareAndSetStatus moves the lot from expected to next.
	// It reports false without error when the stored status is no longer expected.
	CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error)
}

// PackLotRepository defines persistence operations for PackLot
type PackLotRepository interface {
	Create(ctx context.Context, lot *entity.PackLot) error
	GetByID(ctx context.Context, id int64) (*entity.PackLot, error)
	GetByCode(ctx context.Context, code string) (*entity.PackLot, error)
	List(ctx context.Context, filter entity.LotFilter) ([]*entity.PackLot, error)
	CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error)
}

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id int64) (*entity.Request, error)
	List(ctx context.Context, filter entity.LotFilter) ([]*entity.Request, error)
	CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error)
}

// EvidenceRepository records the facts CM lot guards are evaluated against
type EvidenceRepository interface {
	AddCollection(ctx context.Context, c *entity.CollectionEvent) error
	AddProcessingStep(ctx context.Context, step *entity.ProcessingStep) error
	AddQCRequirement(ctx context.Context, req *entity.QCRequirement) error
	AddQCResult(ctx context.Context, result *entity.QCResult) error
	AddQADecision(ctx context.Context, decision *entity.QADecision) error

	ListCollections(ctx context.Context, cmLotID int64) ([]*entity.CollectionEvent, error)
	ListProcessingSteps(ctx context.Context, cmLotID int64) ([]*entity.ProcessingStep, error)
	ListQCResults(ctx context.Context, cmLotID int64) ([]*entity.QCResult, error)
	GetQADecision(ctx context.Context, cmLotID int64) (*entity.QADecision, error)

	// Summarize returns the guard counters for a CM lot in one read
	Summarize(ctx context.Context, cmLotID int64) (*entity.CMLotEvidence, error)
}

// HistoryRepository defines persistence operations for StatusHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.StatusHistory) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusHistory, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Notification, error)

	// MarkRead reports false when no notification has the given id
	MarkRead(ctx context.Context, id int64) (bool, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
