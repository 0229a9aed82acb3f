package prompt

import "errors"

var (
	// ErrEmptyConversation indicates a chat turn with no messages at all.
	ErrEmptyConversation = errors.New("conversation is empty")

	// ErrNoUserMessage indicates a conversation without a user turn to answer.
	ErrNoUserMessage = errors.New("conversation has no user message")
)
