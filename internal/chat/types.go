package chat

// ChatMessage is one turn of the conversation sent by the client.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatInput is the assistant request payload.
type ChatInput struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}
