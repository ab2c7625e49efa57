package service

import (
	"context"
	"sync"

	"github.com/garyjia/lotflow/internal/domain/entity"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

// mockTxManager runs fn inline; rolledBack counts failed transactions
type mockTxManager struct {
	calls      int
	rolledBack int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if err := fn(ctx); err != nil {
		m.rolledBack++
		return err
	}
	return nil
}

type mockCMLotRepo struct {
	lots   map[int64]*entity.CMLot
	nextID int64

	getByIDFunc func(ctx context.Context, id int64) (*entity.CMLot, error)
	casFunc     func(ctx context.Context, id int64, expected, next string) (bool, error)
}

func newMockCMLotRepo(lots ...*entity.CMLot) *mockCMLotRepo {
	m := &mockCMLotRepo{lots: make(map[int64]*entity.CMLot)}
	for _, l := range lots {
		m.lots[l.ID] = l
		if l.ID > m.nextID {
			m.nextID = l.ID
		}
	}
	return m
}

func (m *mockCMLotRepo) Create(ctx context.Context, lot *entity.CMLot) error {
	m.nextID++
	lot.ID = m.nextID
	copied := *lot
	m.lots[lot.ID] = &copied
	return nil
}

func (m *mockCMLotRepo) GetByID(ctx context.Context, id int64) (*entity.CMLot, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	lot, ok := m.lots[id]
	if !ok {
		return nil, nil
	}
	copied := *lot
	return &copied, nil
}

func (m *mockCMLotRepo) GetByCode(ctx context.Context, code string) (*entity.CMLot, error) {
	for _, l := range m.lots {
		if l.Code == code {
			copied := *l
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockCMLotRepo) List(ctx context.Context, filter entity.LotFilter) ([]*entity.CMLot, error) {
	var out []*entity.CMLot
	for id := int64(1); id <= m.nextID; id++ {
		if l, ok := m.lots[id]; ok && (filter.Status == "" || l.Status == filter.Status) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockCMLotRepo) CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error) {
	if m.casFunc != nil {
		return m.casFunc(ctx, id, expected, next)
	}
	lot, ok := m.lots[id]
	if !ok || lot.Status != expected {
		return false, nil
	}
	lot.Status = next
	return true, nil
}

type mockPackLotRepo struct {
	lots   map[int64]*entity.PackLot
	nextID int64
}

func newMockPackLotRepo(lots ...*entity.PackLot) *mockPackLotRepo {
	m := &mockPackLotRepo{lots: make(map[int64]*entity.PackLot)}
	for _, l := range lots {
		m.lots[l.ID] = l
		if l.ID > m.nextID {
			m.nextID = l.ID
		}
	}
	return m
}

func (m *mockPackLotRepo) Create(ctx context.Context, lot *entity.PackLot) error {
	m.nextID++
	lot.ID = m.nextID
	copied := *lot
	m.lots[lot.ID] = &copied
	return nil
}

func (m *mockPackLotRepo) GetByID(ctx context.Context, id int64) (*entity.PackLot, error) {
	lot, ok := m.lots[id]
	if !ok {
		return nil, nil
	}
	copied := *lot
	return &copied, nil
}

func (m *mockPackLotRepo) GetByCode(ctx context.Context, code string) (*entity.PackLot, error) {
	for _, l := range m.lots {
		if l.Code == code {
			copied := *l
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockPackLotRepo) List(ctx context.Context, filter entity.LotFilter) ([]*entity.PackLot, error) {
	var out []*entity.PackLot
	for id := int64(1); id <= m.nextID; id++ {
		if l, ok := m.lots[id]; ok && (filter.Status == "" || l.Status == filter.Status) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockPackLotRepo) CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error) {
	lot, ok := m.lots[id]
	if !ok || lot.Status != expected {
		return false, nil
	}
	lot.Status = next
	return true, nil
}

type mockRequestRepo struct {
	reqs   map[int64]*entity.Request
	nextID int64
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{reqs: make(map[int64]*entity.Request)}
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	m.nextID++
	req.ID = m.nextID
	copied := *req
	m.reqs[req.ID] = &copied
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	req, ok := m.reqs[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepo) List(ctx context.Context, filter entity.LotFilter) ([]*entity.Request, error) {
	var out []*entity.Request
	for id := int64(1); id <= m.nextID; id++ {
		if r, ok := m.reqs[id]; ok && (filter.Status == "" || r.Status == filter.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) CompareAndSetStatus(ctx context.Context, id int64, expected, next string) (bool, error) {
	req, ok := m.reqs[id]
	if !ok || req.Status != expected {
		return false, nil
	}
	req.Status = next
	return true, nil
}

// mockEvidenceRepo keeps a summary per lot and counts writes
type mockEvidenceRepo struct {
	summaries map[int64]*entity.CMLotEvidence
	decisions map[int64]*entity.QADecision
	writes    int

	summarizeFunc func(ctx context.Context, cmLotID int64) (*entity.CMLotEvidence, error)
}

func newMockEvidenceRepo() *mockEvidenceRepo {
	return &mockEvidenceRepo{
		summaries: make(map[int64]*entity.CMLotEvidence),
		decisions: make(map[int64]*entity.QADecision),
	}
}

func (m *mockEvidenceRepo) summary(id int64) *entity.CMLotEvidence {
	s, ok := m.summaries[id]
	if !ok {
		s = &entity.CMLotEvidence{}
		m.summaries[id] = s
	}
	return s
}

func (m *mockEvidenceRepo) AddCollection(ctx context.Context, c *entity.CollectionEvent) error {
	m.writes++
	m.summary(c.CMLotID).CollectionsCount++
	return nil
}

func (m *mockEvidenceRepo) AddProcessingStep(ctx context.Context, step *entity.ProcessingStep) error {
	m.writes++
	m.summary(step.CMLotID).ProcessingStepsCount++
	return nil
}

func (m *mockEvidenceRepo) AddQCRequirement(ctx context.Context, req *entity.QCRequirement) error {
	m.writes++
	s := m.summary(req.CMLotID)
	s.QCTestsRequired = append(s.QCTestsRequired, req.TestCode)
	return nil
}

func (m *mockEvidenceRepo) AddQCResult(ctx context.Context, result *entity.QCResult) error {
	m.writes++
	m.summary(result.CMLotID).QCResultsCount++
	return nil
}

func (m *mockEvidenceRepo) AddQADecision(ctx context.Context, decision *entity.QADecision) error {
	m.writes++
	m.decisions[decision.CMLotID] = decision
	s := m.summary(decision.CMLotID)
	s.HasQADecision = true
	s.QAReleased = decision.Decision == entity.QADecisionRelease
	return nil
}

func (m *mockEvidenceRepo) ListCollections(ctx context.Context, cmLotID int64) ([]*entity.CollectionEvent, error) {
	return nil, nil
}

func (m *mockEvidenceRepo) ListProcessingSteps(ctx context.Context, cmLotID int64) ([]*entity.ProcessingStep, error) {
	return nil, nil
}

func (m *mockEvidenceRepo) ListQCResults(ctx context.Context, cmLotID int64) ([]*entity.QCResult, error) {
	return nil, nil
}

func (m *mockEvidenceRepo) GetQADecision(ctx context.Context, cmLotID int64) (*entity.QADecision, error) {
	return m.decisions[cmLotID], nil
}

func (m *mockEvidenceRepo) Summarize(ctx context.Context, cmLotID int64) (*entity.CMLotEvidence, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, cmLotID)
	}
	copied := *m.summary(cmLotID)
	return &copied, nil
}

type mockHistoryRepo struct {
	records []*entity.StatusHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.StatusHistory) error {
	history.ID = int64(len(m.records) + 1)
	m.records = append(m.records, history)
	return nil
}

func (m *mockHistoryRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusHistory, error) {
	var out []*entity.StatusHistory
	for _, r := range m.records {
		if r.EntityType == entityType && r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockNotificationRepo struct {
	items []*entity.Notification

	createFunc func(ctx context.Context, n *entity.Notification) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	n.ID = int64(len(m.items) + 1)
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListUnread(ctx context.Context, limit int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range m.items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) List(ctx context.Context, limit, offset int) ([]*entity.Notification, error) {
	return m.items, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id int64) (bool, error) {
	for _, n := range m.items {
		if n.ID == id {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}
