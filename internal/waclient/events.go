package waclient

// Raw client events. The registry translates these into the websocket event
// catalog; GenericEvent covers the long tail (reactions, group updates) that
// is passed through without normalization.

type QREvent struct {
	Code string
}

type AuthenticatedEvent struct{}

type AuthFailureEvent struct {
	Reason string
}

type ReadyEvent struct {
	// SelfID is the account identity the session authenticated as.
	SelfID string
}

type DisconnectedEvent struct {
	Reason string
}

type MessageEvent struct {
	Message Message
}

type GenericEvent struct {
	Name string
	Data interface{}
}
