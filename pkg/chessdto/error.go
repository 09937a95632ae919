package chessdto

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// DomainError is an API failure decoded on the client side.
type DomainError struct {
	Status    int
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}
