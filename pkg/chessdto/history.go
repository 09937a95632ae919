package chessdto

import "time"

type GameRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Result      string    `json:"result"`
	Method      string    `json:"method,omitempty"`
	Reason      string    `json:"reason"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	Losses      []int     `json:"losses"`
	FinalRating int       `json:"final_rating"`
	FinalDepth  int       `json:"final_depth"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationMS  int64     `json:"duration_ms"`
}

type GameList struct {
	Games []*GameRecord `json:"games"`
}
