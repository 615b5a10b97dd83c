package realtime

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/complyon/complyon-go/internal/types"
)

// MessageLog is the append-only local view of one conversation. Optimistic
// sends enter as temp-prefixed placeholders and are replaced in place by
// the authoritative server copy, or removed on send failure, exactly once
// either way. Server messages must arrive with increasing sequence
// numbers; stale or duplicate sequences are dropped.
//
// Order reflects the order the manager processed events, which under
// reconnection is not guaranteed to equal wall-clock order. That is a
// documented limitation, not an invariant.
type MessageLog struct {
	mu      sync.Mutex
	msgs    []types.Message
	lastSeq int64
}

// NewMessageLog builds an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// tempPrefix marks optimistic placeholders awaiting server confirmation.
const tempPrefix = "temp-"

// AppendOptimistic records a locally sent message before the server
// confirms it and returns the placeholder.
func (l *MessageLog) AppendOptimistic(content string) types.Message {
	msg := types.Message{
		ID:        tempPrefix + uuid.NewString(),
		Role:      "user",
		Content:   content,
		CreatedAt: time.Now(),
	}
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
	return msg
}

// Confirm replaces the oldest pending placeholder in place with the
// authoritative copy, preserving its position. With no placeholder pending
// the message appends like any server message.
func (l *MessageLog) Confirm(msg types.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.msgs {
		if strings.HasPrefix(l.msgs[i].ID, tempPrefix) {
			l.msgs[i] = msg
			if msg.SequenceNumber > l.lastSeq {
				l.lastSeq = msg.SequenceNumber
			}
			return
		}
	}
	l.appendLocked(msg)
}

// Drop removes a placeholder after a failed send. A placeholder is removed
// or replaced exactly once; dropping an already-resolved ID is a no-op.
func (l *MessageLog) Drop(tempID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.msgs {
		if l.msgs[i].ID == tempID {
			l.msgs = append(l.msgs[:i], l.msgs[i+1:]...)
			return
		}
	}
}

// Append records a server message, enforcing per-conversation sequence
// monotonicity. Returns false when the message was dropped as stale.
func (l *MessageLog) Append(msg types.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(msg)
}

func (l *MessageLog) appendLocked(msg types.Message) bool {
	if msg.SequenceNumber <= l.lastSeq {
		return false
	}
	l.msgs = append(l.msgs, msg)
	l.lastSeq = msg.SequenceNumber
	return true
}

// Messages returns a copy of the log in processing order.
func (l *MessageLog) Messages() []types.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Len reports the number of entries, placeholders included.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
