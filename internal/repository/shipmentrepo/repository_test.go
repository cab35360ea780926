package shipmentrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/pkg/cache"
	"pharmatrace/internal/pkg/logger"
	"pharmatrace/internal/repository/shipmentrepo"
	"pharmatrace/internal/storage"
)

// MockStore é uma implementação mock do contrato genérico de persistência.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Insert(ctx context.Context, table string, row storage.Row) (storage.Row, error) {
	args := m.Called(ctx, table, row)
	return args.Get(0).(storage.Row), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, table string, pred storage.Predicate, patch storage.Row) (storage.Row, error) {
	args := m.Called(ctx, table, pred, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(storage.Row), args.Error(1)
}

func (m *MockStore) Select(ctx context.Context, table string, pred storage.Predicate, order *storage.Order, limit int) ([]storage.Row, error) {
	args := m.Called(ctx, table, pred, order, limit)
	return args.Get(0).([]storage.Row), args.Error(1)
}

func newTestRepo(store storage.Store) *shipmentrepo.ShipmentRepository {
	log := logger.NewLogger("error")
	return shipmentrepo.NewShipmentRepository(store, cache.NewStore(time.Minute, log), log)
}

func shipmentRow(id string) storage.Row {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return storage.Row{
		"id":          id,
		"reference":   "REF-001",
		"batch_id":    "LOTE-9",
		"company_id":  "empresa-1",
		"origin":      "Berlin",
		"destination": "Munich",
		"status":      "IN_TRANSIT",
		"created_at":  now,
		"updated_at":  now,
	}
}

// TestFindByID_CacheAside garante que a segunda leitura vem do cache local sem
// tocar a persistência de novo.
func TestFindByID_CacheAside(t *testing.T) {
	mockStore := new(MockStore)
	repo := newTestRepo(mockStore)

	mockStore.On("Select", mock.Anything, "shipments", storage.Predicate{"id": "ship-1"}, (*storage.Order)(nil), 1).
		Return([]storage.Row{shipmentRow("ship-1")}, nil).Once()
	mockStore.On("Select", mock.Anything, "checkpoints", storage.Predicate{"shipment_id": "ship-1"},
		&storage.Order{Column: "created_at"}, 0).
		Return([]storage.Row{}, nil).Once()

	first, err := repo.FindByID(context.Background(), "ship-1")
	assert.NoError(t, err)
	assert.Equal(t, "REF-001", first.Reference)
	assert.Equal(t, domain.StatusInTransit, first.Status)

	// Cache HIT: nenhum novo Select esperado (os .Once() acima já consumidos).
	second, err := repo.FindByID(context.Background(), "ship-1")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	mockStore.AssertExpectations(t)
}

// TestFindByID_Fail_NotFound garante a tradução de resultado vazio para NotFound.
func TestFindByID_Fail_NotFound(t *testing.T) {
	mockStore := new(MockStore)
	repo := newTestRepo(mockStore)

	mockStore.On("Select", mock.Anything, "shipments", mock.Anything, (*storage.Order)(nil), 1).
		Return([]storage.Row{}, nil)

	_, err := repo.FindByID(context.Background(), "fantasma")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// TestAppendCheckpoint_InvalidaCache garante que o append invalida a linha em
// cache: a leitura seguinte volta à persistência.
func TestAppendCheckpoint_InvalidaCache(t *testing.T) {
	mockStore := new(MockStore)
	repo := newTestRepo(mockStore)

	mockStore.On("Select", mock.Anything, "shipments", mock.Anything, (*storage.Order)(nil), 1).
		Return([]storage.Row{shipmentRow("ship-1")}, nil).Twice()
	mockStore.On("Select", mock.Anything, "checkpoints", mock.Anything, mock.Anything, 0).
		Return([]storage.Row{}, nil).Twice()

	_, err := repo.FindByID(context.Background(), "ship-1") // popula o cache
	assert.NoError(t, err)

	cp := domain.Checkpoint{
		ID: "cp-1", ShipmentID: "ship-1", Location: "Leipzig",
		Status: domain.StatusInTransit, CreatedAt: time.Now().UTC(),
	}
	mockStore.On("Insert", mock.Anything, "checkpoints", mock.Anything).
		Return(storage.Row{
			"id": "cp-1", "shipment_id": "ship-1", "location": "Leipzig",
			"status": "IN_TRANSIT", "created_at": cp.CreatedAt,
		}, nil)

	saved, err := repo.AppendCheckpoint(context.Background(), cp)
	assert.NoError(t, err)
	assert.Equal(t, "Leipzig", saved.Location)

	// Sem a invalidação, esta leitura viria do cache e o segundo .Twice()
	// nunca seria consumido.
	_, err = repo.FindByID(context.Background(), "ship-1")
	assert.NoError(t, err)

	mockStore.AssertExpectations(t)
}

// TestAppendCheckpoint_Metadata garante a serialização da metadata opcional.
func TestAppendCheckpoint_Metadata(t *testing.T) {
	mockStore := new(MockStore)
	repo := newTestRepo(mockStore)

	mockStore.On("Insert", mock.Anything, "checkpoints", mock.MatchedBy(func(row storage.Row) bool {
		raw, ok := row["metadata"].(string)
		return ok && raw == `{"driver":"J. Silva"}`
	})).Return(storage.Row{
		"id": "cp-1", "shipment_id": "ship-1", "location": "Leipzig",
		"status": "IN_TRANSIT", "metadata": `{"driver":"J. Silva"}`,
		"created_at": time.Now().UTC(),
	}, nil)

	saved, err := repo.AppendCheckpoint(context.Background(), domain.Checkpoint{
		ID: "cp-1", ShipmentID: "ship-1", Location: "Leipzig",
		Status:   domain.StatusInTransit,
		Metadata: map[string]string{"driver": "J. Silva"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "J. Silva", saved.Metadata["driver"])
	mockStore.AssertExpectations(t)
}

// TestUpdateStatus_Fail_NotFound garante a tradução de ErrNoRows para NotFound.
func TestUpdateStatus_Fail_NotFound(t *testing.T) {
	mockStore := new(MockStore)
	repo := newTestRepo(mockStore)

	mockStore.On("Update", mock.Anything, "shipments", mock.Anything, mock.Anything).
		Return(nil, storage.ErrNoRows)

	err := repo.UpdateStatus(context.Background(), "fantasma", domain.StatusInTransit, time.Now().UTC())
	assert.IsType(t, &apperror.NotFoundError{}, err)
}
