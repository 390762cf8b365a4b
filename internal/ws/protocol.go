package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgnsrekt/gwsync/internal/data"
)

const (
	// ProtocolVersion is announced in hello frames by both peers.
	ProtocolVersion = "gw-ws-1"

	// TopicEvents is the event-log subscription topic.
	TopicEvents = "events"
)

// Frame kinds, carried in the "t" key of every frame.
const (
	FrameHello = "hello"
	FrameEvent = "event"
	FrameReq   = "req"
	FrameRsp   = "rsp"
	FrameSub   = "sub"
	FrameUnsub = "unsub"
	FramePing  = "ping"
	FramePong  = "pong"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownFrame   = errors.New("unknown frame kind")
)

// Hello is the client's opening frame.
type Hello struct {
	Proto string
	Subs  []string
	Since uint64
}

// HelloAck is the gateway's answer to Hello. EventLastID is nil when the
// gateway did not report its newest id.
type HelloAck struct {
	Proto       string
	Caps        map[string]bool
	EventLastID *uint64
}

// Request is a one-shot call multiplexed over the socket.
type Request struct {
	ID     json.RawMessage
	Method string
	Params json.RawMessage
}

// Response answers a Request with the same id.
type Response struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Err    string          `json:"err,omitempty"`
	Result json.RawMessage `json:"res,omitempty"`
}

// Subscription is a sub or unsub frame.
type Subscription struct {
	Topic       string
	Since       uint64
	Unsubscribe bool
}

type (
	Ping struct{}
	Pong struct{}
)

type envelope struct {
	T string `json:"t"`
}

type helloFrame struct {
	T           string          `json:"t"`
	Proto       string          `json:"proto,omitempty"`
	Subs        []string        `json:"subs,omitempty"`
	Since       *uint64         `json:"since,omitempty"`
	Caps        map[string]bool `json:"caps,omitempty"`
	EventLastID *uint64         `json:"event_last_id,omitempty"`
}

type eventFrame struct {
	T string `json:"t"`
	data.Event
}

type reqFrame struct {
	T      string          `json:"t"`
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"m"`
	Params json.RawMessage `json:"p,omitempty"`
}

type rspFrame struct {
	T      string          `json:"t"`
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Err    string          `json:"err,omitempty"`
	Result json.RawMessage `json:"res,omitempty"`
}

type subFrame struct {
	T     string  `json:"t"`
	Topic string  `json:"topic"`
	Since *uint64 `json:"since,omitempty"`
}

// BuildHello creates the client hello frame.
func BuildHello(proto string, subs []string, since uint64) []byte {
	b, _ := json.Marshal(helloFrame{T: FrameHello, Proto: proto, Subs: subs, Since: &since})
	return b
}

// BuildHelloAck creates the gateway's hello acknowledgment.
func BuildHelloAck(proto string, caps map[string]bool, lastID *uint64) []byte {
	b, _ := json.Marshal(helloFrame{T: FrameHello, Proto: proto, Caps: caps, EventLastID: lastID})
	return b
}

// BuildEvent creates a pushed event frame.
func BuildEvent(e data.Event) []byte {
	b, _ := json.Marshal(eventFrame{T: FrameEvent, Event: e})
	return b
}

// BuildRequest creates a request frame with a string correlation id.
func BuildRequest(id, method string, params any) ([]byte, error) {
	rawID, _ := json.Marshal(id)
	frame := reqFrame{T: FrameReq, ID: rawID, Method: method}
	if params != nil {
		p, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding params: %w", err)
		}
		frame.Params = p
	}
	return json.Marshal(frame)
}

// BuildResponse creates a response frame. id is echoed verbatim.
func BuildResponse(id json.RawMessage, ok bool, errMsg string, result any) []byte {
	frame := rspFrame{T: FrameRsp, ID: id, OK: ok}
	if !ok {
		frame.Err = errMsg
	}
	if result != nil {
		if res, err := json.Marshal(result); err == nil {
			frame.Result = res
		}
	}
	b, _ := json.Marshal(frame)
	return b
}

// BuildSubscription creates a sub or unsub frame.
func BuildSubscription(topic string, since uint64, unsubscribe bool) []byte {
	frame := subFrame{T: FrameSub, Topic: topic, Since: &since}
	if unsubscribe {
		frame.T = FrameUnsub
		frame.Since = nil
	}
	b, _ := json.Marshal(frame)
	return b
}

func BuildPing() []byte {
	return []byte(`{"t":"ping"}`)
}

func BuildPong() []byte {
	return []byte(`{"t":"pong"}`)
}

func frameKind(raw []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.T == "" {
		return "", fmt.Errorf("%w: missing t", ErrMalformedFrame)
	}
	return env.T, nil
}

// ParseDownstream parses a gateway-to-client frame into *HelloAck,
// *data.Event, *Response or *Pong.
func ParseDownstream(raw []byte) (any, error) {
	kind, err := frameKind(raw)
	if err != nil {
		return nil, err
	}

	switch kind {
	case FrameHello:
		var f helloFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: hello: %v", ErrMalformedFrame, err)
		}
		return &HelloAck{Proto: f.Proto, Caps: f.Caps, EventLastID: f.EventLastID}, nil

	case FrameEvent:
		var idProbe struct {
			ID *uint64 `json:"id"`
		}
		if err := json.Unmarshal(raw, &idProbe); err != nil {
			return nil, fmt.Errorf("%w: event: %v", ErrMalformedFrame, err)
		}
		if idProbe.ID == nil || *idProbe.ID == 0 {
			return nil, fmt.Errorf("%w: event without id", ErrMalformedFrame)
		}
		var f eventFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: event: %v", ErrMalformedFrame, err)
		}
		return &f.Event, nil

	case FrameRsp:
		var f rspFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: rsp: %v", ErrMalformedFrame, err)
		}
		return &Response{ID: rawIDString(f.ID), OK: f.OK, Err: f.Err, Result: f.Result}, nil

	case FramePong:
		return &Pong{}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFrame, kind)
	}
}

// ParseUpstream parses a client-to-gateway frame into *Hello, *Request,
// *Subscription or *Ping.
func ParseUpstream(raw []byte) (any, error) {
	kind, err := frameKind(raw)
	if err != nil {
		return nil, err
	}

	switch kind {
	case FrameHello:
		var f helloFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: hello: %v", ErrMalformedFrame, err)
		}
		h := &Hello{Proto: f.Proto, Subs: f.Subs}
		if f.Since != nil {
			h.Since = *f.Since
		}
		return h, nil

	case FrameReq:
		var f reqFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: req: %v", ErrMalformedFrame, err)
		}
		return &Request{ID: f.ID, Method: f.Method, Params: f.Params}, nil

	case FrameSub, FrameUnsub:
		var f subFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFrame, kind, err)
		}
		s := &Subscription{Topic: f.Topic, Unsubscribe: kind == FrameUnsub}
		if f.Since != nil {
			s.Since = *f.Since
		}
		return s, nil

	case FramePing:
		return &Ping{}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFrame, kind)
	}
}

// rawIDString renders a correlation id for matching. The gateway echoes ids
// verbatim so they may arrive as strings or numbers.
func rawIDString(id json.RawMessage) string {
	if len(id) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(id, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(id))
}
