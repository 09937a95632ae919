package domain

import "time"

// GameRecord is the archived history of one session.
type GameRecord struct {
	ID          string
	SessionID   string
	Result      string
	Method      string
	Reason      string
	MovesUCI    []string
	MovesSAN    []string
	Losses      []int
	FinalRating int
	FinalDepth  int
	StartedAt   time.Time
	EndedAt     time.Time
}

func (g *GameRecord) Duration() time.Duration {
	return g.EndedAt.Sub(g.StartedAt)
}

// Reasons a session ends up in the archive.
const (
	ReasonFinished = "finished"
	ReasonDeleted  = "deleted"
	ReasonEvicted  = "evicted"
	ReasonReplaced = "replaced"
	ReasonShutdown = "shutdown"
)
