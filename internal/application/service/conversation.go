package service

import "context"

// Sender delivers an outbound text message to a user. Delivery is best
// effort; the engine logs failures and moves on without retrying.
type Sender interface {
	Send(userID, text string) error
}

// Authorizer answers whether a normalized user identifier may use the bot.
// Implementations refresh from their backing source so the engine always
// sees the latest snapshot.
type Authorizer interface {
	IsAllowed(userID string) bool
}

// ConversationService consumes inbound (user, text) events and drives the
// per-user menu state machine.
type ConversationService interface {
	// HandleMessage processes one inbound event: it normalizes the sender,
	// checks authorization, executes the transition for the user's current
	// step and issues the resulting replies. Blank text is dropped silently.
	HandleMessage(ctx context.Context, rawUserID, rawText string) error
}
