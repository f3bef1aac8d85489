package chat

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Role identifies who authored a message.
type Role = schema.RoleType

const (
	RoleUser      Role = schema.User
	RoleAssistant Role = schema.Assistant
)

// Message is one entry of the conversation log. It is never mutated after append.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayTime renders t the way the chat UI labels messages, e.g. "03:04 PM".
func DisplayTime(t time.Time) string {
	return t.Format("03:04 PM")
}
