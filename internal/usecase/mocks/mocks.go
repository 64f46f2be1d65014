package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/credipos/engine/internal/domain"
	"github.com/credipos/engine/internal/usecase"
)

// MockLoanRepository is a mock implementation of LoanRepository.
type MockLoanRepository struct {
	mu    sync.RWMutex
	loans map[string]*domain.Loan

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error)
	UpdateStateFunc      func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Loan, error)
	ListAllFunc          func(ctx context.Context) ([]*domain.Loan, error)
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		loans: make(map[string]*domain.Loan),
	}
}

func (m *MockLoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if loan, ok := m.loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockLoanRepository) UpdateState(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.UpdateStateFunc != nil {
		return m.UpdateStateFunc(ctx, tx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.loans[loan.ID]; ok {
		stored.Status = loan.Status
		stored.PaidAmount = loan.PaidAmount
		stored.Version++
		stored.UpdatedAt = loan.UpdatedAt
	}
	return nil
}

func (m *MockLoanRepository) List(ctx context.Context, limit, offset int) ([]*domain.Loan, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	all, _ := m.ListAll(ctx)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MockLoanRepository) ListAll(ctx context.Context) ([]*domain.Loan, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	loans := make([]*domain.Loan, 0, len(m.loans))
	for _, loan := range m.loans {
		loans = append(loans, loan)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

// MockInstallmentRepository is a mock implementation of InstallmentRepository.
type MockInstallmentRepository struct {
	mu           sync.RWMutex
	installments map[string]*domain.Installment

	CreateBatchFunc func(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error
	UpdateFunc      func(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error
	UpdateBatchFunc func(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error
	ListByLoanFunc  func(ctx context.Context, loanID string) ([]*domain.Installment, error)
}

func NewMockInstallmentRepository() *MockInstallmentRepository {
	return &MockInstallmentRepository{
		installments: make(map[string]*domain.Installment),
	}
}

func (m *MockInstallmentRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, installments)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range installments {
		m.installments[inst.ID] = inst
	}
	return nil
}

func (m *MockInstallmentRepository) Update(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, installment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installments[installment.ID] = installment
	return nil
}

func (m *MockInstallmentRepository) UpdateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	if m.UpdateBatchFunc != nil {
		return m.UpdateBatchFunc(ctx, tx, installments)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range installments {
		m.installments[inst.ID] = inst
	}
	return nil
}

func (m *MockInstallmentRepository) ListByLoan(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	if m.ListByLoanFunc != nil {
		return m.ListByLoanFunc(ctx, loanID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var installments []*domain.Installment
	for _, inst := range m.installments {
		if inst.LoanID == loanID {
			installments = append(installments, inst)
		}
	}
	sort.Slice(installments, func(i, j int) bool { return installments[i].Sequence < installments[j].Sequence })
	return installments, nil
}

// MockReceivableRepository is a mock implementation of ReceivableRepository.
type MockReceivableRepository struct {
	mu          sync.RWMutex
	receivables map[string]*domain.Receivable

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Receivable, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Receivable, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Receivable, error)
	ListAllFunc          func(ctx context.Context) ([]*domain.Receivable, error)
}

func NewMockReceivableRepository() *MockReceivableRepository {
	return &MockReceivableRepository{
		receivables: make(map[string]*domain.Receivable),
	}
}

func (m *MockReceivableRepository) Create(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, receivable)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receivables[receivable.ID] = receivable
	return nil
}

func (m *MockReceivableRepository) GetByID(ctx context.Context, id string) (*domain.Receivable, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.receivables[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReceivableNotFound
}

func (m *MockReceivableRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Receivable, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockReceivableRepository) Update(ctx context.Context, tx usecase.Transaction, receivable *domain.Receivable) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, receivable)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receivables[receivable.ID] = receivable
	return nil
}

func (m *MockReceivableRepository) List(ctx context.Context, limit, offset int) ([]*domain.Receivable, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	all, _ := m.ListAll(ctx)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MockReceivableRepository) ListAll(ctx context.Context) ([]*domain.Receivable, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	receivables := make([]*domain.Receivable, 0, len(m.receivables))
	for _, r := range m.receivables {
		receivables = append(receivables, r)
	}
	sort.Slice(receivables, func(i, j int) bool { return receivables[i].ID < receivables[j].ID })
	return receivables, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	Events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var unpublished []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			unpublished = append(unpublished, e)
			if len(unpublished) == limit {
				break
			}
		}
	}
	return unpublished, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Events[:0]
	for _, e := range m.Events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// EventsOfType returns recorded events matching the given type.
func (m *MockOutboxRepository) EventsOfType(eventType string) []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.OutboxEvent
	for _, e := range m.Events {
		if e.EventType == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	Logs []*domain.AuditLog

	CreateFunc          func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc        func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
	GetByResourceIDFunc func(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	if m.GetByResourceIDFunc != nil {
		return m.GetByResourceIDFunc(ctx, resourceType, resourceID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var logs []*domain.AuditLog
	for _, l := range m.Logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string]string

	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]string),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
