package models

// MSubscribeCommand is the only message clients send over the socket.
// An empty Symbols list means "everything".
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}

// MQuotePush is the frame broadcast to subscribed clients when a quote
// is refreshed from upstream.
type MQuotePush struct {
	Type  string `json:"type"` // "QUOTE"
	Quote MQuote `json:"quote"`
}
