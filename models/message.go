package models

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeWelcome    = "welcome"
	WSTypeText       = "text"
	WSTypeButton     = "button"
	WSTypeBotMessage = "bot_message"
	WSTypeButtonAck  = "button_ack"
)

// Button is an inline button; Data is echoed back verbatim in the button event.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type ButtonPayload struct {
	CallbackID string `json:"callback_id"`
	Data       string `json:"data"`
}

type BotMessagePayload struct {
	Text    string     `json:"text"`
	Markup  string     `json:"markup,omitempty"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

type ButtonAckPayload struct {
	CallbackID string `json:"callback_id"`
	Text       string `json:"text,omitempty"`
}

// EventKind tags an inbound event handled by the dispatcher.
type EventKind int

const (
	EventText EventKind = iota + 1
	EventButton
	EventExpired
)

type Event struct {
	Kind       EventKind
	OwnerID    string
	Text       string
	CallbackID string
	Data       string
}
