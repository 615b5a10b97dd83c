package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/complyon/complyon-go/internal/types"
)

// Frame is the JSON envelope used in both directions on the chat socket.
// Type discriminates the payload; unknown or shapeless frames are dropped
// before they can touch the message log.
type Frame struct {
	Type           string    `json:"type"`
	ID             string    `json:"id,omitempty"`
	Role           string    `json:"role,omitempty"`
	Content        string    `json:"content,omitempty"`
	SequenceNumber int64     `json:"sequence_number,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	Detail         string    `json:"detail,omitempty"`
}

// Frame types the backend sends.
const (
	FrameMessage    = "message"
	FrameTyping     = "typing"
	FrameError      = "error"
	FrameConnection = "connection"
)

// ParseFrame decodes and shape-checks an inbound frame. Anything that
// fails here is dropped by the manager, never dispatched.
func ParseFrame(payload []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	switch f.Type {
	case FrameMessage:
		if f.ID == "" {
			return nil, fmt.Errorf("message frame missing id")
		}
		if f.SequenceNumber <= 0 {
			return nil, fmt.Errorf("message frame missing sequence_number")
		}
	case FrameTyping, FrameError, FrameConnection:
		// envelope-only frames
	case "":
		return nil, fmt.Errorf("frame missing type")
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
	return &f, nil
}

// Message converts a message frame into the shared message type.
func (f *Frame) Message() types.Message {
	return types.Message{
		ID:             f.ID,
		Role:           f.Role,
		Content:        f.Content,
		SequenceNumber: f.SequenceNumber,
		CreatedAt:      f.CreatedAt,
	}
}
