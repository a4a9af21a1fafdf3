// Package handler contains Telegram command handlers.
package handler

import (
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// Message is one outgoing bot message.
type Message struct {
	// Text is the message text (HTML formatted).
	Text string

	// ParseMode is the parse mode ("HTML").
	ParseMode string

	// MediaRef is an optional photo to send with Text as caption.
	MediaRef string

	// Keyboard is the reply keyboard to attach.
	Keyboard *presenter.Keyboard
}

// Response is the ordered sequence of messages a handler wants sent.
type Response struct {
	Messages []Message
}

// NewResponse builds a response from messages.
func NewResponse(messages ...Message) *Response {
	return &Response{Messages: messages}
}

// HTML builds a single HTML message with an optional keyboard.
func HTML(text string, keyboard *presenter.Keyboard) *Response {
	return NewResponse(Message{Text: text, ParseMode: "HTML", Keyboard: keyboard})
}

// Append adds a message to the response.
func (r *Response) Append(m Message) *Response {
	r.Messages = append(r.Messages, m)
	return r
}
