package models

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        string   `json:"id,omitempty"`
	Role      ChatRole `json:"role"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatReply holds the stored user message and the assistant answer.
type ChatReply struct {
	Message ChatMessage `json:"message"`
	Reply   ChatMessage `json:"reply"`
}
