package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/complyon/complyon-go/internal/apierrors"
	"github.com/complyon/complyon-go/internal/transport"
	"github.com/complyon/complyon-go/internal/types"
)

// ListConversations returns the caller's chat threads.
func ListConversations(ctx context.Context, tc *transport.Client) ([]types.Conversation, error) {
	var resp types.ListConversationsResponse
	err := tc.Do(ctx, transport.Request{
		Op:     "list conversations",
		Method: http.MethodGet,
		Path:   "/api/v1/chat/conversations",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// CreateConversation opens a new chat thread.
func CreateConversation(ctx context.Context, tc *transport.Client, req types.CreateConversationRequest) (*types.Conversation, error) {
	var conv types.Conversation
	err := tc.Do(ctx, transport.Request{
		Op:     "create conversation",
		Method: http.MethodPost,
		Path:   "/api/v1/chat/conversations",
		Body:   req,
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListMessages pages through a conversation's history, oldest first.
func ListMessages(ctx context.Context, tc *transport.Client, conversationID string, afterSequence int64) ([]types.Message, error) {
	if err := types.ValidateIDPresent(conversationID, "conversationId"); err != nil {
		return nil, apierrors.Validation(err)
	}
	q := url.Values{}
	if afterSequence > 0 {
		q.Set("after_sequence", strconv.FormatInt(afterSequence, 10))
	}
	var resp types.ListMessagesResponse
	err := tc.Do(ctx, transport.Request{
		Op:     "list messages",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v1/chat/conversations/%s/messages", conversationID),
		Query:  q,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a message over REST. This is the fallback path when
// the realtime channel is not connected; the manager never queues sends.
func SendMessage(ctx context.Context, tc *transport.Client, conversationID string, req types.SendMessageRequest) (*types.Message, error) {
	if err := types.ValidateIDPresent(conversationID, "conversationId"); err != nil {
		return nil, apierrors.Validation(err)
	}
	var msg types.Message
	err := tc.Do(ctx, transport.Request{
		Op:     "send message",
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/v1/chat/conversations/%s/messages", conversationID),
		Body:   req,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
