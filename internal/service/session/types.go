package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/adaptive-chess/internal/chess"
	"github.com/park285/adaptive-chess/internal/domain"
	"github.com/park285/adaptive-chess/internal/events"
)

// Engine is what a session needs from its engine handle.
type Engine interface {
	BestMoves(ctx context.Context, fen string, depth, count int) ([]chess.Line, error)
	PlayMove(ctx context.Context, fen string, depth int) (string, error)
	Close() error
}

type EngineOpener interface {
	Open(ctx context.Context) (Engine, error)
}

type OpenerFunc func(ctx context.Context) (Engine, error)

func (f OpenerFunc) Open(ctx context.Context) (Engine, error) { return f(ctx) }

type Archive interface {
	InsertGame(ctx context.Context, game *domain.GameRecord) error
}

type Publisher interface {
	Publish(ev events.Event)
}

type Phase int

const (
	AwaitingHumanMove Phase = iota
	HumanMoved
	AwaitingBotMove
	BotThinking
	GameOver
)

func (p Phase) String() string {
	switch p {
	case AwaitingHumanMove:
		return "awaiting_human_move"
	case HumanMoved:
		return "human_moved"
	case AwaitingBotMove:
		return "awaiting_bot_move"
	case BotThinking:
		return "bot_thinking"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// InFlight reports phases during which the engine is working for the session.
func (p Phase) InFlight() bool { return p == HumanMoved || p == BotThinking }

type CollisionPolicy int

const (
	CollisionReject CollisionPolicy = iota
	CollisionReplace
)

func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return CollisionReject, nil
	case "replace":
		return CollisionReplace, nil
	default:
		return CollisionReject, fmt.Errorf("unknown collision policy %q", s)
	}
}

type MeasurementPolicy int

const (
	MeasurementReject MeasurementPolicy = iota
	MeasurementAcceptUnscored
)

func ParseMeasurementPolicy(s string) (MeasurementPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return MeasurementReject, nil
	case "accept", "accept_unscored", "unscored":
		return MeasurementAcceptUnscored, nil
	default:
		return MeasurementReject, fmt.Errorf("unknown measurement policy %q", s)
	}
}

const (
	DefaultInitialDepth  = 4
	DefaultSessionTTL    = 30 * time.Minute
	DefaultEvictInterval = time.Minute
	DefaultEngineTimeout = 30 * time.Second

	engineSlack = time.Second
)

type Config struct {
	DefaultDepth  int
	SkillWindow   int
	SessionTTL    time.Duration
	EvictInterval time.Duration
	EngineTimeout time.Duration
	Collision     CollisionPolicy
	Measurement   MeasurementPolicy
}

type CreateRequest struct {
	ID string
	// InitialDepth nil selects Config.DefaultDepth.
	InitialDepth *int
}

type Sample struct {
	Ply  int
	Move string
	Loss int
	At   time.Time
}

type View struct {
	ID          string
	FEN         string
	SideToMove  string
	Phase       Phase
	Status      string
	Depth       int
	Rating      int
	SampleCount int
	ACPL        float64
	Moves       []string
	MovesUCI    []string
	Losses      []int
	RunningACPL []float64
	Samples     []Sample
	Result      string
	Method      string
	CreatedAt   time.Time
	LastAccess  time.Time
}

type MoveResult struct {
	View     *View
	Move     string
	SAN      string
	BestMove string
	Loss     int
	Scored   bool
	GameOver bool
}

type BotMoveResult struct {
	View     *View
	Move     string
	SAN      string
	Depth    int
	GameOver bool
}
