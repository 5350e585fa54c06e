package webhookdto

// Notification is one delivery from the gateway. ID is the delivery id
// when the transport carries one.
type Notification struct {
	ID      string            `json:"id,omitempty"`
	Payload map[string]string `json:"payload"`
	Headers map[string]string `json:"headers,omitempty"`
}

type ListWebhooksInput struct {
	Status    string
	EventType string
	TxnID     string
	Verified  *bool
	Limit     int
}
