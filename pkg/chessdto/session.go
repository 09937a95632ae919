package chessdto

import "time"

type Sample struct {
	Ply  int       `json:"ply"`
	Move string    `json:"move"`
	Loss int       `json:"loss"`
	At   time.Time `json:"at"`
}

type SessionView struct {
	SessionID   string    `json:"session_id"`
	FEN         string    `json:"fen"`
	Turn        string    `json:"turn"`
	Phase       string    `json:"phase"`
	Status      string    `json:"status"`
	Depth       int       `json:"depth"`
	Rating      int       `json:"rating"`
	SampleCount int       `json:"sample_count"`
	ACPL        float64   `json:"acpl"`
	Moves       []string  `json:"moves"`
	MovesUCI    []string  `json:"moves_uci"`
	CPLLosses   []int     `json:"cpl_losses"`
	AvgLosses   []float64 `json:"avg_losses"`
	Samples     []Sample  `json:"samples,omitempty"`
	Result      string    `json:"result,omitempty"`
	Method      string    `json:"method,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastAccess  time.Time `json:"last_access"`
}

func (v *SessionView) GameOver() bool { return v != nil && v.Phase == "game_over" }

type SessionList struct {
	Sessions []*SessionView `json:"sessions"`
}
