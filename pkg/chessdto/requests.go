package chessdto

type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Depth     *int   `json:"depth,omitempty"` // nil selects the server default
}

type MoveRequest struct {
	Move string `json:"move"`
}
