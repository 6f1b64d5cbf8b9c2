package schema

// Message is one entry in the conversation sent to the model.
//
// Role is one of: "system", "user", "assistant".
type Message struct {
	Role    string
	Content string
}

func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// ToWireMap serialises m into the OpenAI wire-format map.
func (m Message) ToWireMap() map[string]any {
	return map[string]any{
		"role":    m.Role,
		"content": m.Content,
	}
}
