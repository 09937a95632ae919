package chessdto

// MoveResponse reports a human move. Loss is nil when the move was accepted
// without a measurement.
type MoveResponse struct {
	Session  *SessionView `json:"session"`
	Move     string       `json:"move"`
	SAN      string       `json:"san"`
	BestMove string       `json:"best_move,omitempty"`
	Loss     *int         `json:"loss"`
	GameOver bool         `json:"game_over"`
}

type BotMoveResponse struct {
	Session  *SessionView `json:"session"`
	Move     string       `json:"move"`
	SAN      string       `json:"san"`
	Depth    int          `json:"depth"`
	GameOver bool         `json:"game_over"`
}

type LegalMove struct {
	Move string `json:"move"`
	SAN  string `json:"san"`
}

type LegalMoves struct {
	SessionID string      `json:"session_id"`
	Moves     []LegalMove `json:"moves"`
}

// HintResponse carries the engine's suggestion. Eval is in centipawns for
// the side to move; Mate is non-zero for a forced mate.
type HintResponse struct {
	SessionID string `json:"session_id"`
	Move      string `json:"move"`
	SAN       string `json:"san"`
	Eval      int    `json:"eval"`
	Mate      int    `json:"mate,omitempty"`
	Depth     int    `json:"depth"`
}
