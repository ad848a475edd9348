package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vital-backend/internal/gateway"
)

const (
	defaultTimeout = 180 * time.Second

	msgTimeout       = "Vital took too long to respond. Try again."
	msgUnreachable   = "Could not reach Vital. Is the gateway running?"
	msgClosed        = "Gateway connection closed unexpectedly."
	msgAgentError    = "Vital encountered an error."
	msgEmptyReply    = "No response received."
	imageFallbackQ   = "What is this?"
	maxSavedReplyLen = 50000
)

// Emitter receives the downstream event stream. End seals it: later Send
// and End calls must be no-ops.
type Emitter interface {
	Send(event string, data any)
	End(event string, data any)
}

// Config parameterizes a chat bridge.
type Config struct {
	URL        string
	Origin     string
	Token      string
	SocketImpl string
	Namespace  string // session key namespace, e.g. "vital"
	Timeout    time.Duration
}

// Bridge proxies one chat turn: it dials the agent gateway over WebSocket,
// performs the protocol v3 handshake, relays streaming text downstream as
// deltas, and terminates with exactly one done or error event.
type Bridge struct {
	cfg  Config
	dial func(ctx context.Context, cfg gateway.Config) (gateway.Socket, error)
	log  zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "vital"
	}
	return &Bridge{
		cfg:  cfg,
		dial: gateway.Dial,
		log:  log.With().Str("component", "bridge").Logger(),
	}
}

var sessionKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9:_-]+$`)

// SessionPrefix returns the namespace a user's session keys must live in.
func (b *Bridge) SessionPrefix(username string) string {
	return fmt.Sprintf("agent:%s:%s-", b.cfg.Namespace, username)
}

// ResolveSessionKey accepts the client's key only when it sits inside the
// caller's own namespace and is made of safe characters; anything else gets
// a fresh key minted from the current time.
func (b *Bridge) ResolveSessionKey(username, clientKey string) string {
	prefix := b.SessionPrefix(username)
	if clientKey != "" && strings.HasPrefix(clientKey, prefix) && sessionKeyRegex.MatchString(clientKey) {
		return clientKey
	}
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixMilli())
}

var dataURLRegex = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// ParseImage converts a data URL into a gateway attachment. Unparseable
// input yields nil; the message still goes through without the image.
func ParseImage(image string) *gateway.Attachment {
	m := dataURLRegex.FindStringSubmatch(image)
	if m == nil {
		return nil
	}
	return &gateway.Attachment{Type: "image", MimeType: m[1], Content: m[2]}
}

// ChatMessage applies the image-only fallback prompt.
func ChatMessage(message, image string) string {
	msg := strings.TrimSpace(message)
	if msg == "" && image != "" {
		return imageFallbackQ
	}
	return msg
}

// TruncateReply caps a transcript entry for persistence.
func TruncateReply(reply string) string {
	if reply == "" {
		reply = msgEmptyReply
	}
	if len(reply) > maxSavedReplyLen {
		return reply[:maxSavedReplyLen]
	}
	return reply
}

// Run executes one chat turn. onFinal is invoked with the complete reply
// before the done event is emitted, so the transcript is saved first. The
// context ending (client disconnect) tears down the upstream socket.
func (b *Bridge) Run(ctx context.Context, em Emitter, sessionKey, message string, attachment *gateway.Attachment, onFinal func(reply string)) {
	sock, err := b.dial(ctx, gateway.Config{
		URL:    b.cfg.URL,
		Origin: b.cfg.Origin,
		Impl:   b.cfg.SocketImpl,
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("gateway dial failed")
		em.End("error", map[string]string{"error": msgUnreachable})
		return
	}
	defer sock.Close()

	timer := time.NewTimer(b.cfg.Timeout)
	defer timer.Stop()

	lastText := ""

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			em.End("error", map[string]string{"error": msgTimeout})
			return
		case raw, ok := <-sock.Receive():
			if !ok {
				if err := sock.Err(); err != nil {
					b.log.Warn().Err(err).Msg("gateway socket error")
					em.End("error", map[string]string{"error": msgUnreachable})
				} else {
					em.End("error", map[string]string{"error": msgClosed})
				}
				return
			}

			var frame gateway.Frame
			if err := json.Unmarshal(raw, &frame); err != nil {
				// Malformed frames are dropped without ending the stream.
				continue
			}

			switch {
			case frame.Event == "connect.challenge":
				if err := b.sendConnect(ctx, sock); err != nil {
					em.End("error", map[string]string{"error": msgUnreachable})
					return
				}

			case frame.OK != nil && *frame.OK && isHelloOK(frame.Payload):
				em.Send("status", map[string]string{"status": "connected"})
				if err := b.sendChat(ctx, sock, sessionKey, message, attachment); err != nil {
					em.End("error", map[string]string{"error": msgUnreachable})
					return
				}

			case frame.Event == "agent":
				var p gateway.AgentEventPayload
				if err := json.Unmarshal(frame.Payload, &p); err != nil {
					continue
				}
				if p.Stream == "assistant" && p.Data.Text != "" {
					// The stream carries the full text so far; forward only
					// the unseen suffix.
					if len(p.Data.Text) > len(lastText) {
						em.Send("delta", map[string]string{"delta": p.Data.Text[len(lastText):]})
						lastText = p.Data.Text
					}
				}
				if p.Stream == "lifecycle" && p.Data.Phase == "start" {
					em.Send("status", map[string]string{"status": "thinking"})
				}

			case frame.Event == "chat":
				var p gateway.ChatEventPayload
				if err := json.Unmarshal(frame.Payload, &p); err != nil {
					continue
				}
				switch p.State {
				case "final":
					finalText := lastText
					for _, c := range p.Message.Content {
						if c.Type == "text" && c.Text != "" {
							finalText = c.Text
						}
					}
					if len(finalText) > len(lastText) {
						em.Send("delta", map[string]string{"delta": finalText[len(lastText):]})
					}
					reply := finalText
					if reply == "" {
						reply = msgEmptyReply
					}
					if onFinal != nil {
						onFinal(reply)
					}
					em.End("done", map[string]string{"reply": reply, "sessionKey": sessionKey})
					return
				case "error":
					errMsg := p.ErrorMessage
					if errMsg == "" {
						errMsg = p.Error
					}
					if errMsg == "" {
						errMsg = msgAgentError
					}
					em.End("error", map[string]string{"error": errMsg})
					return
				}

			case frame.OK != nil && !*frame.OK && frame.Error != nil:
				detail := frame.Error.Message
				if detail == "" {
					detail = frame.Error.Code
				}
				if detail == "" {
					detail = "Unknown"
				}
				em.End("error", map[string]string{"error": "Gateway error: " + detail})
				return
			}
		}
	}
}

func isHelloOK(payload json.RawMessage) bool {
	var hello gateway.HelloPayload
	if err := json.Unmarshal(payload, &hello); err != nil {
		return false
	}
	return hello.Type == "hello-ok"
}

func (b *Bridge) sendConnect(ctx context.Context, sock gateway.Socket) error {
	params := gateway.ConnectParams{
		MinProtocol: 3,
		MaxProtocol: 3,
		Client: gateway.ConnectClient{
			ID:          "openclaw-control-ui",
			DisplayName: "Vital Dashboard",
			Version:     "1.0",
			Platform:    "linux",
			Mode:        "ui",
		},
		Caps:   []string{},
		Auth:   &gateway.ConnectAuth{Token: b.cfg.Token},
		Role:   "operator",
		Scopes: []string{"operator.admin", "operator.write", "operator.read"},
	}
	return b.sendReq(ctx, sock, "connect", params)
}

func (b *Bridge) sendChat(ctx context.Context, sock gateway.Socket, sessionKey, message string, attachment *gateway.Attachment) error {
	params := gateway.ChatSendParams{
		SessionKey:     sessionKey,
		Message:        message,
		IdempotencyKey: uuid.NewString(),
	}
	if attachment != nil {
		params.Attachments = []gateway.Attachment{*attachment}
	}
	return b.sendReq(ctx, sock, "chat.send", params)
}

func (b *Bridge) sendReq(ctx context.Context, sock gateway.Socket, method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(gateway.Frame{
		Type:   "req",
		ID:     uuid.NewString(),
		Method: method,
		Params: raw,
	})
	if err != nil {
		return err
	}
	return sock.Send(ctx, frame)
}
