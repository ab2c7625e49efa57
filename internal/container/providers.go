package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/lotflow/internal/application/dispatcher"
	"github.com/garyjia/lotflow/internal/application/port"
	"github.com/garyjia/lotflow/internal/application/service"
	"github.com/garyjia/lotflow/internal/domain/event"
	"github.com/garyjia/lotflow/internal/domain/workflow"
	"github.com/garyjia/lotflow/internal/infrastructure/export"
	"github.com/garyjia/lotflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/lotflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/lotflow/internal/infrastructure/storage"
	"github.com/garyjia/lotflow/pkg/database"
	"github.com/garyjia/lotflow/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// EngineBundle holds the three lifecycle engines.
type EngineBundle struct {
	CMLot   *workflow.Engine[workflow.CMLotStatus]
	PackLot *workflow.Engine[workflow.PackLotStatus]
	Request *workflow.Engine[workflow.RequestStatus]
}

// ExportBundle holds workbook rendering and archiving.
type ExportBundle struct {
	Renderer port.WorkbookRenderer
	Archive  port.ReportStore
}

// ProvideDatabase opens the SQLite store, applies the embedded migrations
// and wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		CMLot:        repository.NewCMLotRepository(sqlDB, logger),
		PackLot:      repository.NewPackLotRepository(sqlDB, logger),
		Request:      repository.NewRequestRepository(sqlDB, logger),
		Evidence:     repository.NewEvidenceRepository(sqlDB, logger),
		History:      repository.NewHistoryRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
	}, nil
}

// ProvideEngines builds the lifecycle engines over the default tables.
func ProvideEngines() *EngineBundle {
	return &EngineBundle{
		CMLot:   workflow.NewCMLotEngine(),
		PackLot: workflow.NewPackLotEngine(),
		Request: workflow.NewRequestEngine(),
	}
}

// ProvideExport creates the workbook renderer and, when archiveDir is set, the report archive.
func ProvideExport(cfg *ExportConfig, logger *zap.Logger) *ExportBundle {
	bundle := &ExportBundle{Renderer: export.NewStatusWorkbook(logger)}
	if cfg != nil && cfg.ArchiveDir != "" {
		bundle.Archive = storage.NewLocalReportStore(cfg.ArchiveDir, logger)
	}
	return bundle
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKVLogger(logger)),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Engines    *EngineBundle
	Export     *ExportBundle
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification service to status change events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Engines == nil || deps.Export == nil {
		return nil, fmt.Errorf("engines and export are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewKVLogger(deps.Logger)
	r, e := deps.Repos, deps.Engines

	lots := service.NewLotService(
		r.CMLot, r.PackLot, r.Evidence, r.History,
		deps.TxManager, deps.Dispatcher,
		e.CMLot, e.PackLot,
		serviceLogger,
	)

	notifications := service.NewNotificationService(r.Notification, serviceLogger)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Lots:     lots,
		Evidence: service.NewEvidenceService(r.CMLot, r.Evidence, e.CMLot, deps.Dispatcher, serviceLogger),
		Requests: service.NewRequestService(
			r.Request, r.CMLot, r.History,
			deps.TxManager, deps.Dispatcher,
			e.Request,
			serviceLogger,
		),
		Notifications: notifications,
		Export: service.NewExportService(
			lots,
			deps.Export.Renderer,
			deps.Export.Archive,
			e.CMLot, e.PackLot,
			serviceLogger,
		),
	}, nil
}

// RegisterAuditLog logs creation and evidence events, which have no other subscriber.
func RegisterAuditLog(d dispatcher.Dispatcher, logger *zap.Logger) {
	handler := func(ctx context.Context, evt *event.Event) error {
		logger.Info("Lifecycle event",
			zap.String("event_type", evt.Type.String()),
			zap.String("event_id", evt.ID),
			zap.String("entity_type", evt.EntityType),
			zap.Int64("entity_id", evt.EntityID),
			zap.String("code", evt.GetPayloadString(event.KeyCode)),
			zap.String("actor", evt.GetPayloadString(event.KeyActor)),
		)
		return nil
	}

	for _, t := range []event.Type{event.TypeLotCreated, event.TypeRequestCreated, event.TypeEvidenceRecorded} {
		d.SubscribeNamed(t, "audit_log", handler)
	}
}
