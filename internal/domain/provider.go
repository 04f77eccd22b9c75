package domain

import "context"

// Role tags a prompt segment.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Segment is one role-tagged part of a prompt.
type Segment struct {
	Role    Role
	Content string
}

// CompletionParams is the parameter bag sent alongside a prompt.
// Extra is forwarded to the backend as-is.
type CompletionParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Extra       map[string]any
}

// CompletionRequest is a single generation call.
type CompletionRequest struct {
	Segments []Segment
	Params   CompletionParams
}

// CompletionService generates text for a prompt.
type CompletionService interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
