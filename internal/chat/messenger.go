// Package chat bridges the registration flows to a conversational transport.
// The Messenger interface is the whole outbound surface; any platform that
// can send text, files, and choice prompts to a 64-bit identity can back it.
package chat

import (
	"context"
	"io"
)

// Choice is one selectable option in a prompt.
type Choice struct {
	ID    string
	Label string
}

// Messenger is the outbound half of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, recipientID int64, text string) error
	SendDocument(ctx context.Context, recipientID int64, filename string, content io.Reader, caption string) error
	// PromptChoices shows a message with selectable options and returns a
	// prompt ID the transport can later remove or edit.
	PromptChoices(ctx context.Context, recipientID int64, text string, choices []Choice) (string, error)
	RemovePrompt(ctx context.Context, recipientID int64, promptID string) error
}

// TextInput is a plain message from a chat user.
type TextInput struct {
	SenderID   int64
	SenderName string
	Text       string
}

// ChoiceSelected reports a user picking an option from an earlier prompt.
type ChoiceSelected struct {
	SenderID   int64
	SenderName string
	PromptID   string
	ChoiceID   string
}

// Command is a slash command with its arguments already split.
type Command struct {
	SenderID   int64
	SenderName string
	Name       string
	Args       []string
}
