// Package events fans session state changes out to in-process subscribers.
package events

import (
	"sync"
	"time"
)

type Type string

const (
	SessionCreated Type = "created"
	HumanMoved     Type = "human_move"
	BotMoved       Type = "bot_move"
	GameOver       Type = "game_over"
	SessionDeleted Type = "deleted"
	SessionEvicted Type = "evicted"
)

type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"session_id"`
	Move      string    `json:"move,omitempty"`
	SAN       string    `json:"san,omitempty"`
	Loss      *int      `json:"loss,omitempty"`
	Rating    int       `json:"rating"`
	Depth     int       `json:"depth"`
	FEN       string    `json:"fen"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// Terminal reports whether no further events follow for the session.
func (e Event) Terminal() bool {
	return e.Type == SessionDeleted || e.Type == SessionEvicted
}

const defaultBuffer = 32

// Hub delivers events per session id. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

type Subscription struct {
	hub       *Hub
	sessionID string
	ch        chan Event
	once      sync.Once
	dropped   int
}

func (s *Subscription) C() <-chan Event { return s.ch }

// Dropped counts events lost because the subscriber fell behind.
func (s *Subscription) Dropped() int {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return s.dropped
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.sessionID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.sessionID)
			}
		}
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

func (h *Hub) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{hub: h, sessionID: sessionID, ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	// the write lock guards dropped counters and keeps Close from racing a send
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
		}
	}
}

func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
