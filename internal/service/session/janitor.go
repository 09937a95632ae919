package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/adaptive-chess/internal/domain"
	"github.com/park285/adaptive-chess/internal/events"
)

func (m *Manager) janitor(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.EvictIdle(m.now()); n > 0 {
				m.logger.Info("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// EvictIdle removes sessions untouched for longer than the session TTL.
// Sessions with engine work in flight are skipped.
func (m *Manager) EvictIdle(now time.Time) int {
	if m.cfg.SessionTTL <= 0 {
		return 0
	}

	m.mu.RLock()
	candidates := make([]*gameSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	evicted := 0
	for _, s := range candidates {
		s.mu.Lock()
		idle := !s.removed && !s.phase.InFlight() && now.Sub(s.lastAccess) > m.cfg.SessionTTL
		if !idle {
			s.mu.Unlock()
			continue
		}
		m.mu.Lock()
		if cur, ok := m.sessions[s.id]; ok && cur == s {
			delete(m.sessions, s.id)
		} else {
			idle = false
		}
		m.mu.Unlock()
		s.mu.Unlock()
		if !idle {
			continue
		}

		_ = m.retire(context.Background(), s, domain.ReasonEvicted, events.SessionEvicted)
		m.logger.Debug("session evicted", zap.String("session_id", s.id))
		evicted++
	}
	return evicted
}
