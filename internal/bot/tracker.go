package bot

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Количество шардов трекера. Степень двойки для быстрого остатка.
const trackerShards = 16

// PriceTracker - шардированное скользящее окно цен в памяти
//
// Хранит последние windowSize сэмплов на токен для расчета
// волатильности. Шардирование по fnv-хешу адреса токена убирает
// contention между горутинами движка и фонового опросчика.
type PriceTracker struct {
	shards     [trackerShards]trackerShard
	windowSize int
}

type trackerShard struct {
	mu      sync.RWMutex
	windows map[string]*priceWindow
}

// priceWindow - кольцевой буфер последних сэмплов одного токена
type priceWindow struct {
	samples []trackedSample
	head    int
	full    bool
}

type trackedSample struct {
	price decimal.Decimal
	at    time.Time
}

// NewPriceTracker создает трекер с окном windowSize сэмплов на токен
func NewPriceTracker(windowSize int) *PriceTracker {
	if windowSize < 2 {
		windowSize = 2
	}

	t := &PriceTracker{windowSize: windowSize}
	for i := range t.shards {
		t.shards[i].windows = make(map[string]*priceWindow)
	}
	return t
}

func (t *PriceTracker) shard(token string) *trackerShard {
	h := fnv.New32a()
	h.Write([]byte(token))
	return &t.shards[h.Sum32()%trackerShards]
}

// Record добавляет сэмпл цены токена, вытесняя самый старый
func (t *PriceTracker) Record(token string, price decimal.Decimal, at time.Time) {
	s := t.shard(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[token]
	if !ok {
		w = &priceWindow{samples: make([]trackedSample, t.windowSize)}
		s.windows[token] = w
	}

	w.samples[w.head] = trackedSample{price: price, at: at}
	w.head = (w.head + 1) % len(w.samples)
	if w.head == 0 {
		w.full = true
	}
}

// Window возвращает сэмплы токена от старых к новым
func (t *PriceTracker) Window(token string) []decimal.Decimal {
	s := t.shard(token)

	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[token]
	if !ok {
		return nil
	}

	var out []decimal.Decimal
	if w.full {
		out = make([]decimal.Decimal, 0, len(w.samples))
		for i := 0; i < len(w.samples); i++ {
			out = append(out, w.samples[(w.head+i)%len(w.samples)].price)
		}
	} else {
		out = make([]decimal.Decimal, 0, w.head)
		for i := 0; i < w.head; i++ {
			out = append(out, w.samples[i].price)
		}
	}
	return out
}

// Latest возвращает последний сэмпл токена, если он есть
func (t *PriceTracker) Latest(token string) (decimal.Decimal, bool) {
	s := t.shard(token)

	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[token]
	if !ok {
		return decimal.Zero, false
	}

	last := w.head - 1
	if last < 0 {
		if !w.full {
			return decimal.Zero, false
		}
		last = len(w.samples) - 1
	}
	return w.samples[last].price, true
}

// Tokens возвращает все токены, по которым есть сэмплы
func (t *PriceTracker) Tokens() []string {
	var tokens []string
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for token := range s.windows {
			tokens = append(tokens, token)
		}
		s.mu.RUnlock()
	}
	return tokens
}
