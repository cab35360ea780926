package realtime

import (
	"sync"

	"pharmatrace/internal/pkg/logger"
)

// Nomes dos eventos emitidos pelo núcleo.
const (
	EventShipmentCheckpoint = "shipment:checkpoint"
	EventAlertNew           = "alert:new"
)

// CompanyRoom monta a chave da sala de uma empresa.
func CompanyRoom(companyID string) string {
	return "company:" + companyID
}

// ShipmentRoom monta a chave da sala de um carregamento.
func ShipmentRoom(shipmentID string) string {
	return "shipment:" + shipmentID
}

// Connection é o contrato que o transporte realtime externo (WebSocket, SSE,
// etc.) implementa para cada cliente vivo. O transporte é responsável por
// chamar Leave quando a conexão cai.
type Connection interface {
	ID() string
	Send(event string, payload interface{}) error
}

// Broadcaster é o contrato que os serviços esperam do roteador de fan-out.
// Mantido como interface para os serviços serem testáveis sem transporte.
type Broadcaster interface {
	Emit(roomKey, event string, payload interface{})
}

// Hub é o roteador de fan-out por sala: mantém a associação efêmera entre
// salas (company:{id} / shipment:{id}) e conexões vivas, e entrega eventos a
// todos os inscritos correntes de uma sala.
//
// A entrega é best-effort e at-most-once: não há fila, persistência ou replay.
// Um cliente que reconecta depois de um intervalo deve rebuscar o estado
// corrente via listAlerts/history em vez de esperar eventos perdidos.
//
// As tabelas de sala são locais ao processo: um inscrito conectado na
// instância A nunca vê broadcasts originados na instância B.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Connection // roomKey -> connID -> conn
	logger logger.Logger
}

// NewHub cria um roteador de fan-out vazio.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]Connection),
		logger: log,
	}
}

// Join inscreve a conexão na sala, criando a sala se necessário.
func (h *Hub) Join(conn Connection, roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomKey]
	if !ok {
		members = make(map[string]Connection)
		h.rooms[roomKey] = members
	}
	members[conn.ID()] = conn
}

// Leave remove a conexão de todas as salas. O transporte chama este método
// quando a conexão desconecta; a associação não tem ciclo de vida próprio
// além do da conexão.
func (h *Hub) Leave(conn Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomKey, members := range h.rooms {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(h.rooms, roomKey)
		}
	}
}

// Emit entrega o payload a toda conexão atualmente inscrita na sala.
// Sala vazia (ou inexistente) é um resultado normal e silencioso, não um erro.
// A ordem de emissão é preservada por sala; falha de envio em uma conexão é
// registrada e não interrompe a entrega às demais.
func (h *Hub) Emit(roomKey, event string, payload interface{}) {
	h.mu.RLock()
	members := make([]Connection, 0, len(h.rooms[roomKey]))
	for _, conn := range h.rooms[roomKey] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	for _, conn := range members {
		if err := conn.Send(event, payload); err != nil && h.logger != nil {
			h.logger.Debug("Falha de envio em broadcast (conexão ignorada).", map[string]interface{}{
				"room":    roomKey,
				"event":   event,
				"conn_id": conn.ID(),
				"error":   err.Error(),
			})
		}
	}
}

// RoomSize retorna quantas conexões estão inscritas na sala no momento.
func (h *Hub) RoomSize(roomKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey])
}
