package gateway

import "encoding/json"

// Frame is a raw gateway protocol v3 frame.
type Frame struct {
	Type    string          `json:"type,omitempty"`    // "req", "res", "event"
	ID      string          `json:"id,omitempty"`      // request/response ID
	Method  string          `json:"method,omitempty"`  // request method
	Params  json.RawMessage `json:"params,omitempty"`  // request params
	OK      *bool           `json:"ok,omitempty"`      // response ok
	Payload json.RawMessage `json:"payload,omitempty"` // response/event payload
	Event   string          `json:"event,omitempty"`   // event name
	Error   *FrameError     `json:"error,omitempty"`   // response error
}

type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectParams is sent as the "connect" request after the challenge.
type ConnectParams struct {
	MinProtocol int           `json:"minProtocol"`
	MaxProtocol int           `json:"maxProtocol"`
	Client      ConnectClient `json:"client"`
	Caps        []string      `json:"caps"`
	Auth        *ConnectAuth  `json:"auth,omitempty"`
	Role        string        `json:"role"`
	Scopes      []string      `json:"scopes"`
}

type ConnectClient struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version"`
	Platform    string `json:"platform"`
	Mode        string `json:"mode"`
}

type ConnectAuth struct {
	Token string `json:"token,omitempty"`
}

// HelloPayload is the successful connect response payload.
type HelloPayload struct {
	Type string `json:"type"` // "hello-ok"
}

// ChatSendParams is the "chat.send" request params.
type ChatSendParams struct {
	SessionKey     string       `json:"sessionKey"`
	Message        string       `json:"message"`
	IdempotencyKey string       `json:"idempotencyKey"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Type     string `json:"type"` // "image"
	MimeType string `json:"mimeType"`
	Content  string `json:"content"` // base64
}

// AgentEventPayload is the "agent" event payload carrying streaming state.
// The assistant stream holds the full accumulated text, not a delta.
type AgentEventPayload struct {
	Stream string `json:"stream"` // "assistant" | "lifecycle"
	Data   struct {
		Text  string `json:"text"`
		Phase string `json:"phase"`
	} `json:"data"`
}

// ChatEventPayload is the "chat" event payload carrying terminal state.
type ChatEventPayload struct {
	State        string `json:"state"` // "final" | "error"
	ErrorMessage string `json:"errorMessage"`
	Error        string `json:"error"`
	Message      struct {
		Content []ContentSegment `json:"content"`
	} `json:"message"`
}

type ContentSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
