// Package mocks provides testify mocks for the persistence and event bus interfaces.
package mocks

import (
	"context"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockFlowRepository is a mock implementation of persistence.FlowRepository interface.
type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) GetAll(ctx context.Context) ([]*models.Flow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

// MockRunRepository is a mock implementation of persistence.RunRepository interface.
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) GetAllByFlow(ctx context.Context, flowID string) ([]*models.Run, error) {
	args := m.Called(ctx, flowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Run), args.Error(1)
}

func (m *MockRunRepository) GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.Run, error) {
	args := m.Called(ctx, flowID, runNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Run), args.Error(1)
}

func (m *MockRunRepository) Save(ctx context.Context, run *models.Run) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

// MockRichRunRepository is a mock implementation of persistence.RichRunRepository interface.
type MockRichRunRepository struct {
	mock.Mock
}

func (m *MockRichRunRepository) GetAllByFlow(ctx context.Context, flowID string) ([]*models.RichRun, error) {
	args := m.Called(ctx, flowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.RichRun), args.Error(1)
}

func (m *MockRichRunRepository) GetByKey(ctx context.Context, flowID string, runNumber int64) (*models.RichRun, error) {
	args := m.Called(ctx, flowID, runNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RichRun), args.Error(1)
}

func (m *MockRichRunRepository) GetSince(ctx context.Context, flowID string, since int64) ([]*models.RichRun, error) {
	args := m.Called(ctx, flowID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.RichRun), args.Error(1)
}

func (m *MockRichRunRepository) Upsert(ctx context.Context, row *models.RichRunRow) (*models.RichRun, error) {
	args := m.Called(ctx, row)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.RichRun), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	flowRepo    *MockFlowRepository
	runRepo     *MockRunRepository
	richRunRepo *MockRichRunRepository
}

// NewMockPersistence creates a new MockPersistence with all mock repositories.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		flowRepo:    &MockFlowRepository{},
		runRepo:     &MockRunRepository{},
		richRunRepo: &MockRichRunRepository{},
	}
}

// GetMockFlowRepository returns the underlying mock flow repository for setting up expectations.
func (m *MockPersistence) GetMockFlowRepository() *MockFlowRepository {
	return m.flowRepo
}

func (m *MockPersistence) GetMockRunRepository() *MockRunRepository {
	return m.runRepo
}

func (m *MockPersistence) GetMockRichRunRepository() *MockRichRunRepository {
	return m.richRunRepo
}

func (m *MockPersistence) FlowRepository() persistence.FlowRepository {
	return m.flowRepo
}

func (m *MockPersistence) RunRepository() persistence.RunRepository {
	return m.runRepo
}

func (m *MockPersistence) RichRunRepository() persistence.RichRunRepository {
	return m.richRunRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
