package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/adaptive-chess/internal/domain"
	"github.com/park285/adaptive-chess/internal/events"
	"github.com/park285/adaptive-chess/internal/quality"
	"github.com/park285/adaptive-chess/internal/rules"
	"github.com/park285/adaptive-chess/internal/skill"
)

type Deps struct {
	Rules   rules.Rules
	Opener  EngineOpener
	Meter   *quality.Meter
	Archive Archive
	Events  Publisher
}

// Manager owns the session table. Each session carries its own lock, which
// is released while the engine works on its behalf.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*gameSession

	rules   rules.Rules
	opener  EngineOpener
	meter   *quality.Meter
	archive Archive
	events  Publisher
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type gameSession struct {
	mu sync.Mutex

	id         string
	engine     Engine
	pos        rules.Position
	phase      Phase
	depth      int
	estimator  *skill.Estimator
	samples    []Sample
	movesUCI   []string
	movesSAN   []string
	createdAt  time.Time
	lastAccess time.Time
	removed    bool
	archived   bool
}

func NewManager(deps Deps, cfg Config, logger *zap.Logger) (*Manager, error) {
	if deps.Opener == nil {
		return nil, fmt.Errorf("engine opener is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Rules == nil {
		deps.Rules = rules.New()
	}
	if deps.Meter == nil {
		deps.Meter = quality.NewMeter(quality.Config{}, nil, logger)
	}
	if cfg.DefaultDepth == 0 {
		cfg.DefaultDepth = DefaultInitialDepth
	}
	if !skill.ValidDepth(cfg.DefaultDepth) {
		return nil, fmt.Errorf("%w: default depth %d", ErrInvalidDepth, cfg.DefaultDepth)
	}
	if cfg.SkillWindow < 0 {
		return nil, fmt.Errorf("skill window must be >= 0: %d", cfg.SkillWindow)
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.EvictInterval == 0 {
		cfg.EvictInterval = DefaultEvictInterval
	}
	if cfg.EngineTimeout <= 0 {
		cfg.EngineTimeout = DefaultEngineTimeout
	}

	m := &Manager{
		sessions: make(map[string]*gameSession),
		rules:    deps.Rules,
		opener:   deps.Opener,
		meter:    deps.Meter,
		archive:  deps.Archive,
		events:   deps.Events,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if cfg.SessionTTL > 0 && cfg.EvictInterval > 0 {
		m.wg.Add(1)
		go m.janitor(cfg.EvictInterval)
	}
	return m, nil
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (*View, error) {
	depth := m.cfg.DefaultDepth
	if req.InitialDepth != nil {
		depth = *req.InitialDepth
	}
	if !skill.ValidDepth(depth) {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidDepth, depth, skill.MinDepth, skill.MaxDepth)
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	if m.cfg.Collision == CollisionReject && m.exists(id) {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	openCtx, cancel := context.WithTimeout(ctx, m.cfg.EngineTimeout)
	engine, err := m.opener.Open(openCtx)
	cancel()
	if err != nil {
		m.logger.Warn("engine open failed", zap.String("session_id", id), zap.Error(err))
		return nil, mapEngineError(err)
	}

	now := m.now()
	s := &gameSession{
		id:         id,
		engine:     engine,
		pos:        m.rules.Start(),
		phase:      AwaitingHumanMove,
		depth:      depth,
		estimator:  skill.NewEstimator(m.cfg.SkillWindow),
		createdAt:  now,
		lastAccess: now,
	}

	m.mu.Lock()
	old, exists := m.sessions[id]
	if exists && m.cfg.Collision == CollisionReject {
		m.mu.Unlock()
		_ = engine.Close()
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if exists {
		_ = m.retire(ctx, old, domain.ReasonReplaced, "")
	}

	s.mu.Lock()
	view := s.view()
	s.mu.Unlock()

	m.logger.Info("session created", zap.String("session_id", id), zap.Int("depth", depth), zap.Bool("replaced", exists))
	m.publish(events.SessionCreated, view, "", "", nil)
	return view, nil
}

func (m *Manager) Get(id string) (*View, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.lastAccess = m.now()
	return s.view(), nil
}

// List returns a snapshot of every live session, oldest first.
func (m *Manager) List() []*View {
	m.mu.RLock()
	all := make([]*gameSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	views := make([]*View, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		if !s.removed {
			views = append(views, s.view())
		}
		s.mu.Unlock()
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

func (m *Manager) SubmitMove(ctx context.Context, id, moveText string) (*MoveResult, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.checkPhase(AwaitingHumanMove); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	move, err := s.pos.Validate(moveText)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidMove, moveText, err)
	}
	before := s.pos
	engine := s.engine
	s.phase = HumanMoved
	s.mu.Unlock()

	// two analyses, each allowed a retry
	opCtx, cancel := context.WithTimeout(ctx, m.engineBudget(4))
	meas, measErr := m.meter.Score(opCtx, engine, before, move)
	cancel()

	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	scored := true
	after := meas.After
	if measErr != nil {
		if errors.Is(measErr, rules.ErrIllegalMove) || errors.Is(measErr, rules.ErrMalformedMove) {
			s.phase = AwaitingHumanMove
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %v", ErrInvalidMove, measErr)
		}
		m.logger.Warn("move measurement failed",
			zap.String("session_id", id),
			zap.String("move", move),
			zap.Error(measErr),
		)
		if m.cfg.Measurement != MeasurementAcceptUnscored {
			s.phase = AwaitingHumanMove
			s.mu.Unlock()
			return nil, mapEngineError(measErr)
		}
		next, applyErr := before.Apply(move)
		if applyErr != nil {
			s.phase = AwaitingHumanMove
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %v", ErrInvalidMove, applyErr)
		}
		scored = false
		after = next
	}

	san := before.SAN(move)
	now := m.now()
	if scored {
		s.samples = append(s.samples, Sample{Ply: before.Ply() + 1, Move: move, Loss: meas.Loss, At: now})
		s.estimator.Update(meas.Loss)
		s.depth = skill.DepthFor(s.estimator.Estimate())
	}
	s.pos = after
	s.movesUCI = append(s.movesUCI, move)
	s.movesSAN = append(s.movesSAN, san)
	s.lastAccess = now
	s.phase = AwaitingBotMove
	record := s.finishIfOver(now)
	view := s.view()
	s.mu.Unlock()

	result := &MoveResult{
		View:     view,
		Move:     move,
		SAN:      san,
		BestMove: meas.BestMove,
		Scored:   scored,
		GameOver: view.Phase == GameOver,
	}
	var loss *int
	if scored {
		result.Loss = meas.Loss
		loss = &result.Loss
	}

	m.logger.Debug("human move applied",
		zap.String("session_id", id),
		zap.String("move", move),
		zap.Int("loss", result.Loss),
		zap.Bool("scored", scored),
		zap.Int("rating", view.Rating),
		zap.Int("depth", view.Depth),
	)
	m.publish(events.HumanMoved, view, move, san, loss)
	m.completeIfOver(ctx, view, record)
	return result, nil
}

func (m *Manager) TriggerBotMove(ctx context.Context, id string) (*BotMoveResult, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.checkPhase(AwaitingBotMove); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	before := s.pos
	depth := s.depth
	engine := s.engine
	s.phase = BotThinking
	s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, m.engineBudget(2))
	reply, playErr := engine.PlayMove(opCtx, before.FEN(), depth)
	cancel()

	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if playErr != nil {
		s.phase = AwaitingBotMove
		s.mu.Unlock()
		m.logger.Warn("bot move failed", zap.String("session_id", id), zap.Int("depth", depth), zap.Error(playErr))
		return nil, mapEngineError(playErr)
	}
	move, err := before.Validate(reply)
	var after rules.Position
	if err == nil {
		after, err = before.Apply(move)
	}
	if err != nil {
		s.phase = AwaitingBotMove
		s.mu.Unlock()
		m.logger.Warn("engine proposed unusable move", zap.String("session_id", id), zap.String("move", reply), zap.Error(err))
		return nil, fmt.Errorf("%w: engine move %q: %v", ErrEngineUnavailable, reply, err)
	}

	san := before.SAN(move)
	now := m.now()
	s.pos = after
	s.movesUCI = append(s.movesUCI, move)
	s.movesSAN = append(s.movesSAN, san)
	s.lastAccess = now
	s.phase = AwaitingHumanMove
	record := s.finishIfOver(now)
	view := s.view()
	s.mu.Unlock()

	m.publish(events.BotMoved, view, move, san, nil)
	m.completeIfOver(ctx, view, record)
	return &BotMoveResult{View: view, Move: move, SAN: san, Depth: depth, GameOver: view.Phase == GameOver}, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	_ = m.retire(ctx, s, domain.ReasonDeleted, events.SessionDeleted)
	m.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}

// Close stops the janitor and releases every session.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()

		m.mu.Lock()
		all := make([]*gameSession, 0, len(m.sessions))
		for id, s := range m.sessions {
			all = append(all, s)
			delete(m.sessions, id)
		}
		m.mu.Unlock()

		for _, s := range all {
			if err := m.retire(context.Background(), s, domain.ReasonShutdown, ""); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// engineBudget bounds an operation that may run up to attempts engine
// searches, each limited by EngineTimeout inside the gateway.
func (m *Manager) engineBudget(attempts int) time.Duration {
	return time.Duration(attempts)*m.cfg.EngineTimeout + engineSlack
}

func (m *Manager) exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok
}

func (m *Manager) lookup(id string) (*gameSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// retire marks a session removed, closes its engine and archives it. The
// caller has already dropped it from the table.
func (m *Manager) retire(ctx context.Context, s *gameSession, reason string, evType events.Type) error {
	s.mu.Lock()
	s.removed = true
	var record *domain.GameRecord
	if !s.archived {
		s.archived = true
		record = s.record(reason, m.now())
	}
	view := s.view()
	engine := s.engine
	s.mu.Unlock()

	err := engine.Close()
	if err != nil {
		m.logger.Warn("engine close failed", zap.String("session_id", s.id), zap.Error(err))
	}
	m.store(ctx, record)
	if evType != "" {
		m.publish(evType, view, "", "", nil)
	}
	return err
}

func (m *Manager) completeIfOver(ctx context.Context, view *View, record *domain.GameRecord) {
	if record == nil {
		return
	}
	m.logger.Info("game over",
		zap.String("session_id", view.ID),
		zap.String("result", view.Result),
		zap.String("method", view.Method),
	)
	m.publish(events.GameOver, view, "", "", nil)
	m.store(ctx, record)
}

func (m *Manager) store(ctx context.Context, record *domain.GameRecord) {
	if record == nil || m.archive == nil {
		return
	}
	// archiving must not inherit a cancelled request context
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := m.archive.InsertGame(storeCtx, record); err != nil {
		m.logger.Warn("archive game failed", zap.String("session_id", record.SessionID), zap.Error(err))
	}
}

func (m *Manager) publish(t events.Type, view *View, move, san string, loss *int) {
	if m.events == nil {
		return
	}
	m.events.Publish(events.Event{
		Type:      t,
		SessionID: view.ID,
		Move:      move,
		SAN:       san,
		Loss:      loss,
		Rating:    view.Rating,
		Depth:     view.Depth,
		FEN:       view.FEN,
		Status:    view.Status,
		At:        m.now(),
	})
}

// checkPhase must be called with s.mu held.
func (s *gameSession) checkPhase(want Phase) error {
	if s.removed {
		return fmt.Errorf("%w: %s", ErrNotFound, s.id)
	}
	if s.phase == GameOver {
		return fmt.Errorf("%w: %s", ErrGameOver, s.id)
	}
	if s.phase != want {
		return fmt.Errorf("%w: session %s is %s", ErrWrongTurn, s.id, s.phase)
	}
	return nil
}

// finishIfOver moves the session to GameOver when the position is terminal
// and returns the record to archive. Must be called with s.mu held.
func (s *gameSession) finishIfOver(now time.Time) *domain.GameRecord {
	if !s.pos.Outcome().Terminal() {
		return nil
	}
	s.phase = GameOver
	if s.archived {
		return nil
	}
	s.archived = true
	return s.record(domain.ReasonFinished, now)
}

func (s *gameSession) record(reason string, now time.Time) *domain.GameRecord {
	out := s.pos.Outcome()
	return &domain.GameRecord{
		ID:          uuid.NewString(),
		SessionID:   s.id,
		Result:      out.Result.String(),
		Method:      out.Method,
		Reason:      reason,
		MovesUCI:    append([]string(nil), s.movesUCI...),
		MovesSAN:    append([]string(nil), s.movesSAN...),
		Losses:      s.estimator.Losses(),
		FinalRating: s.estimator.Estimate(),
		FinalDepth:  s.depth,
		StartedAt:   s.createdAt,
		EndedAt:     now,
	}
}

func (s *gameSession) view() *View {
	out := s.pos.Outcome()
	side := s.pos.SideToMove().String()
	v := &View{
		ID:          s.id,
		FEN:         s.pos.FEN(),
		SideToMove:  side,
		Phase:       s.phase,
		Depth:       s.depth,
		Rating:      s.estimator.Estimate(),
		SampleCount: s.estimator.Count(),
		ACPL:        s.estimator.ACPL(),
		Moves:       append([]string(nil), s.movesSAN...),
		MovesUCI:    append([]string(nil), s.movesUCI...),
		Losses:      s.estimator.Losses(),
		RunningACPL: s.estimator.RunningACPL(),
		Samples:     append([]Sample(nil), s.samples...),
		CreatedAt:   s.createdAt,
		LastAccess:  s.lastAccess,
	}
	if out.Terminal() {
		v.Result = out.Result.String()
		v.Method = out.Method
		v.Status = fmt.Sprintf("Game over (%s, %s)", v.Result, out.Method)
	} else {
		v.Status = strings.ToUpper(side[:1]) + side[1:] + " to move"
	}
	return v
}
