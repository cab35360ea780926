package ratelimit

import (
	"time"

	"pharmatrace/internal/pkg/cache"
)

// keyPrefix é o prefixo das chaves de contagem dentro do cache compartilhado.
const keyPrefix = "rate-limit:"

// Result é o retorno de cada incremento: a contagem corrente da janela e o
// instante em que a janela reinicia. Quem decide aceitar ou rejeitar a
// requisição é o chamador (middleware externo), comparando Count com o máximo.
type Result struct {
	Count     int       `json:"count"`
	ResetTime time.Time `json:"reset_time"`
}

// window é o valor armazenado no cache para cada identificador.
type window struct {
	count int
	reset time.Time
}

// Limiter implementa um contador de requisições por janela fixa, construído
// inteiramente sobre o cache local ao processo. A precisão depende de haver
// uma única instância do serviço (ver comentário em cache.Store).
type Limiter struct {
	store  *cache.Store
	window time.Duration
	max    int

	now func() time.Time
}

// NewLimiter cria um novo rate limiter sobre o cache compartilhado.
// windowLen e maxRequests vêm da configuração (RATE_LIMIT_*).
func NewLimiter(store *cache.Store, windowLen time.Duration, maxRequests int) *Limiter {
	return &Limiter{
		store:  store,
		window: windowLen,
		max:    maxRequests,
		now:    time.Now,
	}
}

// Max expõe o limite configurado para o chamador comparar com Result.Count.
func (l *Limiter) Max() int {
	return l.max
}

// Incr incrementa o contador do identificador dentro da janela corrente.
// Se a janela anterior já expirou (a chave sumiu do cache), a contagem
// reinicia em 1 com uma janela nova.
func (l *Limiter) Incr(identifier string) Result {
	key := keyPrefix + identifier

	v, err := l.store.Get(key)
	if err == cache.ErrCacheMiss {
		w := window{count: 1, reset: l.now().Add(l.window)}
		l.store.Set(key, w, l.window)
		return Result{Count: w.count, ResetTime: w.reset}
	}

	w := v.(window)
	remaining := w.reset.Sub(l.now())
	if remaining <= 0 {
		// A janela terminou entre o Get e agora; reinicia.
		w = window{count: 1, reset: l.now().Add(l.window)}
		l.store.Set(key, w, l.window)
		return Result{Count: w.count, ResetTime: w.reset}
	}

	w.count++
	// Reescreve mantendo o mesmo instante absoluto de expiração da janela.
	l.store.Set(key, w, remaining)
	return Result{Count: w.count, ResetTime: w.reset}
}

// Decrement desfaz um incremento (rollback de requisição abortada).
// Sem efeito se a chave não existir ou a contagem já estiver em zero.
func (l *Limiter) Decrement(identifier string) {
	key := keyPrefix + identifier

	v, err := l.store.Get(key)
	if err != nil {
		return
	}

	w := v.(window)
	remaining := w.reset.Sub(l.now())
	if remaining <= 0 {
		l.store.Delete(key)
		return
	}

	if w.count > 0 {
		w.count--
	}
	l.store.Set(key, w, remaining)
}

// ResetKey zera a janela do identificador removendo a chave do cache.
func (l *Limiter) ResetKey(identifier string) {
	l.store.Delete(keyPrefix + identifier)
}
