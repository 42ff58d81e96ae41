package models

// ConversationRef holds everything needed to push a proactive message into
// an existing conversation on the chat platform.
type ConversationRef struct {
	ConversationID string `json:"conversation_id"`
	ServiceURL     string `json:"service_url"`
}

// IsZero reports whether the reference has not been populated.
func (c ConversationRef) IsZero() bool {
	return c.ConversationID == "" && c.ServiceURL == ""
}
