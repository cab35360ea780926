package shipmentrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pharmatrace/internal/domain"
	apperror "pharmatrace/internal/errors"
	"pharmatrace/internal/pkg/cache"
	"pharmatrace/internal/pkg/logger"
	"pharmatrace/internal/storage"
)

const (
	shipmentsTable   = "shipments"
	checkpointsTable = "checkpoints"
)

// Chave de cache por carregamento (row caching, estratégia Cache-Aside).
const shipmentCacheKey = "shipment:%s"

// TTL da linha em cache. Cinco minutos; curto o bastante para o CRUD externo
// (que não passa por aqui) não servir dado muito velho.
const shipmentCacheTTL = 5 * time.Minute

// ShipmentRepository mapeia carregamentos e checkpoints sobre o contrato
// genérico de persistência, com row caching no cache local.
type ShipmentRepository struct {
	Store  storage.Store
	Cache  *cache.Store
	Logger logger.Logger
}

// NewShipmentRepository cria e retorna uma nova instância do Repositório.
func NewShipmentRepository(store storage.Store, cacheStore *cache.Store, log logger.Logger) *ShipmentRepository {
	return &ShipmentRepository{
		Store:  store,
		Cache:  cacheStore,
		Logger: log,
	}
}

// Save persiste um carregamento recém-criado.
func (r *ShipmentRepository) Save(ctx context.Context, shipment domain.Shipment) (domain.Shipment, error) {
	row := storage.Row{
		"id":          shipment.ID,
		"reference":   shipment.Reference,
		"batch_id":    shipment.BatchID,
		"company_id":  shipment.CompanyID,
		"origin":      shipment.Origin,
		"destination": shipment.Destination,
		"status":      string(shipment.Status),
		"created_at":  shipment.CreatedAt,
		"updated_at":  shipment.UpdatedAt,
	}

	saved, err := r.Store.Insert(ctx, shipmentsTable, row)
	if err != nil {
		return domain.Shipment{}, err
	}

	result := shipmentFromRow(saved)
	result.Checkpoints = []domain.Checkpoint{}
	return result, nil
}

// FindByID busca um carregamento pelo ID com sua lista ordenada de
// checkpoints, usando a estratégia Cache-Aside.
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (domain.Shipment, error) {
	key := fmt.Sprintf(shipmentCacheKey, id)
	var shipment domain.Shipment

	// --- 1. Cache-Aside (READ) ---
	if cached, err := r.Cache.Get(key); err == nil {
		if raw, ok := cached.([]byte); ok && json.Unmarshal(raw, &shipment) == nil {
			// Cache HIT
			return shipment, nil
		}
		// Desserialização falhou: descarta a entrada e segue para o banco.
		r.Logger.Debug("Entrada de cache ilegível; rebuscando no banco.", map[string]interface{}{"key": key})
		r.Cache.Delete(key)
	}

	// --- 2. Busca no banco via contrato genérico ---
	rows, err := r.Store.Select(ctx, shipmentsTable, storage.Predicate{"id": id}, nil, 1)
	if err != nil {
		return domain.Shipment{}, err
	}
	if len(rows) == 0 {
		return domain.Shipment{}, apperror.NewNotFoundError(fmt.Sprintf("Carregamento com ID %s não existe na base de dados.", id))
	}
	shipment = shipmentFromRow(rows[0])

	// Checkpoints em ordem estrita de inserção (append-only).
	checkpointRows, err := r.Store.Select(ctx, checkpointsTable,
		storage.Predicate{"shipment_id": id},
		&storage.Order{Column: "created_at"}, 0)
	if err != nil {
		return domain.Shipment{}, err
	}
	shipment.Checkpoints = make([]domain.Checkpoint, 0, len(checkpointRows))
	for _, cpRow := range checkpointRows {
		shipment.Checkpoints = append(shipment.Checkpoints, checkpointFromRow(cpRow))
	}

	// --- 3. Cache-Aside (WRITE) ---
	if shipmentJSON, marshalErr := json.Marshal(shipment); marshalErr == nil {
		r.Cache.Set(key, shipmentJSON, shipmentCacheTTL)
	}

	return shipment, nil
}

// AppendCheckpoint anexa um checkpoint imutável ao histórico do carregamento
// e invalida a linha em cache.
func (r *ShipmentRepository) AppendCheckpoint(ctx context.Context, cp domain.Checkpoint) (domain.Checkpoint, error) {
	var metadataJSON interface{}
	if len(cp.Metadata) > 0 {
		raw, err := json.Marshal(cp.Metadata)
		if err != nil {
			return domain.Checkpoint{}, apperror.NewInternalError("Falha ao serializar metadata do checkpoint.", err)
		}
		metadataJSON = string(raw)
	}

	row := storage.Row{
		"id":          cp.ID,
		"shipment_id": cp.ShipmentID,
		"location":    cp.Location,
		"status":      string(cp.Status),
		"metadata":    metadataJSON,
		"created_at":  cp.CreatedAt,
	}

	saved, err := r.Store.Insert(ctx, checkpointsTable, row)
	if err != nil {
		return domain.Checkpoint{}, err
	}

	r.Cache.Delete(fmt.Sprintf(shipmentCacheKey, cp.ShipmentID))
	return checkpointFromRow(saved), nil
}

// UpdateStatus grava o novo status do carregamento (sempre o status do último
// checkpoint anexado) e invalida a linha em cache.
//
// Não há read-modify-write transacional aqui: dois appends concorrentes no
// mesmo carregamento podem competir e o status do perdedor ser sobrescrito.
// Fraqueza documentada do design observado.
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, shipmentID string, status domain.ShipmentStatus, updatedAt time.Time) error {
	_, err := r.Store.Update(ctx, shipmentsTable,
		storage.Predicate{"id": shipmentID},
		storage.Row{"status": string(status), "updated_at": updatedAt},
	)
	if err == storage.ErrNoRows {
		return apperror.NewNotFoundError(fmt.Sprintf("Carregamento com ID %s não existe na base de dados.", shipmentID))
	}
	if err != nil {
		return err
	}

	r.Cache.Delete(fmt.Sprintf(shipmentCacheKey, shipmentID))
	return nil
}

// --- Mapeamento Row <-> entidade ---

func shipmentFromRow(row storage.Row) domain.Shipment {
	return domain.Shipment{
		ID:          row.String("id"),
		Reference:   row.String("reference"),
		BatchID:     row.String("batch_id"),
		CompanyID:   row.String("company_id"),
		Origin:      row.String("origin"),
		Destination: row.String("destination"),
		Status:      domain.ShipmentStatus(row.String("status")),
		CreatedAt:   row.Time("created_at"),
		UpdatedAt:   row.Time("updated_at"),
	}
}

func checkpointFromRow(row storage.Row) domain.Checkpoint {
	cp := domain.Checkpoint{
		ID:         row.String("id"),
		ShipmentID: row.String("shipment_id"),
		Location:   row.String("location"),
		Status:     domain.ShipmentStatus(row.String("status")),
		CreatedAt:  row.Time("created_at"),
	}
	if raw := row.String("metadata"); raw != "" {
		// Metadata inválida no banco é ignorada, não derruba a leitura.
		_ = json.Unmarshal([]byte(raw), &cp.Metadata)
	}
	return cp
}
