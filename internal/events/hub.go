package events

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	DefaultSubscriberBuffer = 16
)

// BalanceChanged is emitted whenever propagation overwrites a stored balance.
type BalanceChanged struct {
	AccountID  snowflake.ID    `json:"account_id"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Reason     string          `json:"reason"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Hub fans balance-changed events out to in-process subscribers.
// Slow subscribers drop events rather than block the propagation worker.
type Hub struct {
	mu               sync.RWMutex
	subs             map[uint64]chan BalanceChanged
	nextID           uint64
	subscriberBuffer int
}

type Subscription struct {
	hub  *Hub
	id   uint64
	ch   chan BalanceChanged
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]chan BalanceChanged),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(event BalanceChanged) {
	if h == nil {
		return
	}
	h.mu.RLock()
	subs := make([]chan BalanceChanged, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) Subscribe() *Subscription {
	ch := make(chan BalanceChanged, h.subscriberBuffer)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()
	return &Subscription{hub: h, id: id, ch: ch}
}

func (s *Subscription) Events() <-chan BalanceChanged {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}
