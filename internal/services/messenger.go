package services

// SendResult is what a messaging provider reports back for an outbound message.
type SendResult struct {
	ProviderMessageID string
	Status            string // one of models.MessageStatus*
}

// Messenger abstracts the WhatsApp gateway used for outbound delivery.
// EvolutionClient is the default; TwilioProvider is the fallback.
type Messenger interface {
	Name() string
	SendText(to, body string) (*SendResult, error)
	ConnectionState() (string, error)
}
