package cache

import (
	"errors"
	"sync"
	"time"

	"pharmatrace/internal/pkg/logger"
)

// ErrCacheMiss é retornado quando a chave não é encontrada (ou já expirou).
var ErrCacheMiss = errors.New("cache: chave não encontrada")

// DefaultSweepInterval é o intervalo padrão da varredura de limpeza.
const DefaultSweepInterval = 5 * time.Minute

// entry é um registro interno do cache.
// expireAt zero significa "sem TTL" (a entrada nunca expira sozinha).
type entry struct {
	value    interface{}
	expireAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Store é o cache expiracional local ao processo, usado para rate limiting,
// tokens temporários e row caching dos repositórios.
//
// A instância é construída explicitamente pelo composition root (main.go) e a
// varredura de limpeza é iniciada/parada junto com o ciclo de vida do processo
// — nada acontece por efeito colateral de import.
//
// Atenção: o estado é local ao processo. Rodar múltiplas instâncias do serviço
// quebra a precisão do rate limiting (contadores não compartilhados); este é um
// limite declarado do design, não um detalhe a contornar.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepOnce     sync.Once

	// now é injetável para os testes de expiração.
	now func() time.Time

	logger logger.Logger
}

// NewStore cria e retorna uma nova instância do cache.
// sweepInterval <= 0 usa o DefaultSweepInterval (5 minutos).
func NewStore(sweepInterval time.Duration, log logger.Logger) *Store {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Store{
		entries:       make(map[string]entry),
		sweepInterval: sweepInterval,
		stopSweep:     make(chan struct{}),
		now:           time.Now,
		logger:        log,
	}
}

// Set cria ou sobrescreve uma entrada. ttl <= 0 significa sem expiração.
func (s *Store) Set(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.entries[key] = e
}

// Get retorna o valor associado à chave, ou ErrCacheMiss se ausente.
// Uma leitura após o instante de expiração se comporta como chave ausente
// e remove a entrada na hora (lazy eviction).
func (s *Store) Get(key string) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

// Delete remove uma chave do cache. Remover chave inexistente é um no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Exists verifica se a chave está presente e ainda não expirou.
func (s *Store) Exists(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

// Expire atualiza a expiração de uma entrada existente.
// Retorna false (falha silenciosa) se a chave estiver ausente ou expirada.
// ttl <= 0 remove a expiração da entrada.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		return false
	}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	} else {
		e.expireAt = time.Time{}
	}
	s.entries[key] = e
	return true
}

// Len retorna o número de entradas armazenadas (incluindo as expiradas que
// a varredura ainda não removeu).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper inicia a goroutine de varredura periódica que remove todas as
// entradas cuja expiração já passou, limitando a memória entre acessos.
// Deve ser chamada uma única vez pelo composition root.
func (s *Store) StartSweeper() {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed := s.sweep()
				if removed > 0 && s.logger != nil {
					s.logger.Debug("Varredura do cache concluída.", map[string]interface{}{
						"removed":   removed,
						"remaining": s.Len(),
					})
				}
			case <-s.stopSweep:
				return
			}
		}
	}()
}

// StopSweeper encerra a goroutine de varredura. Seguro chamar mais de uma vez.
func (s *Store) StopSweeper() {
	s.sweepOnce.Do(func() {
		close(s.stopSweep)
	})
}

// sweep remove todas as entradas expiradas e retorna quantas foram removidas.
func (s *Store) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
