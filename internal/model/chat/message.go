package chat

import "time"

// Author identifies who produced a message.
type Author string

const (
	AuthorUser   Author = "user"
	AuthorBot    Author = "bot"
	AuthorSystem Author = "system"
	AuthorError  Author = "error"
)

// FulfillmentState reports whether a turn's response was produced successfully.
type FulfillmentState string

const (
	Fulfilled FulfillmentState = "Fulfilled"
	Failed    FulfillmentState = "Failed"
)

// Message is a single immutable entry in the conversation history.
type Message struct {
	ID               string           `json:"id"`
	Author           Author           `json:"author"`
	Content          string           `json:"content"`
	Intent           string           `json:"intent,omitempty"`
	FulfillmentState FulfillmentState `json:"fulfillmentState,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}
