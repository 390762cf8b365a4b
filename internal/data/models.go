package data

import (
	"encoding/json"
	"fmt"
)

// Event is one entry of the gateway's append-only event log.
// IDs are assigned by the gateway and never reused.
type Event struct {
	ID        uint64          `json:"id"`
	Version   int             `json:"v,omitempty"`
	Timestamp int64           `json:"ts_ms"` // ms since gateway boot, not wall clock
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Subject   string          `json:"device_uid,omitempty"`
	ShortAddr uint16          `json:"short_addr,omitempty"`
	Msg       string          `json:"msg,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// HasPayload reports whether the event carries a structured payload.
func (e Event) HasPayload() bool {
	return len(e.Payload) > 0 && string(e.Payload) != "null"
}

// Uptime renders the event timestamp the way the gateway UI does: "+12.345s".
func (e Event) Uptime() string {
	return fmt.Sprintf("+%.3fs", float64(e.Timestamp)/1000)
}

// EventPage is one response of the historical events endpoint.
type EventPage struct {
	LastID uint64  `json:"last_id"`
	Events []Event `json:"events"`
}

// MaxID returns the highest event id in the page, or 0 when empty.
func (p *EventPage) MaxID() uint64 {
	var max uint64
	for _, e := range p.Events {
		if e.ID > max {
			max = e.ID
		}
	}
	return max
}
