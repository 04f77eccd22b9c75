package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEvent marks an inbound event that cannot become a Message.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrReplyFailed marks a decision cycle that wanted to reply but could not.
	ErrReplyFailed = errors.New("reply failed")

	errEmptyCompletion = errors.New("completion returned no text")
)

// Reply stages reported by ReplyError.
const (
	StageGenerate = "generate"
	StageDispatch = "dispatch"
)

// ReplyError wraps the cause of a failed reply. It matches ErrReplyFailed.
type ReplyError struct {
	Stage string
	Cause error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("reply failed during %s: %v", e.Stage, e.Cause)
}

func (e *ReplyError) Unwrap() error { return e.Cause }

func (e *ReplyError) Is(target error) bool { return target == ErrReplyFailed }

func invalidEvent(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, reason)
}
