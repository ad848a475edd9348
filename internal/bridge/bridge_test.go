package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vital-backend/internal/gateway"
)

type fakeSocket struct {
	recv chan []byte

	mu     sync.Mutex
	sent   []gateway.Frame
	err    error
	closed bool

	onSend func(s *fakeSocket, frame gateway.Frame)
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{recv: make(chan []byte, 32)}
}

func (s *fakeSocket) Send(ctx context.Context, data []byte) error {
	var frame gateway.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, frame)
	onSend := s.onSend
	s.mu.Unlock()
	if onSend != nil {
		onSend(s, frame)
	}
	return nil
}

func (s *fakeSocket) Receive() <-chan []byte { return s.recv }

func (s *fakeSocket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSocket) sentMethods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	methods := make([]string, 0, len(s.sent))
	for _, f := range s.sent {
		methods = append(methods, f.Method)
	}
	return methods
}

func event(name, payload string) []byte {
	return []byte(fmt.Sprintf(`{"type":"event","event":%q,"payload":%s}`, name, payload))
}

func helloOK() []byte {
	return []byte(`{"type":"res","ok":true,"payload":{"type":"hello-ok"}}`)
}

func assistantText(text string) []byte {
	return event("agent", fmt.Sprintf(`{"stream":"assistant","data":{"text":%q}}`, text))
}

type recordedEvent struct {
	name string
	data map[string]string
}

type recorder struct {
	mu       sync.Mutex
	events   []recordedEvent
	finished bool
}

func (r *recorder) Send(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.events = append(r.events, recordedEvent{name: name, data: data.(map[string]string)})
}

func (r *recorder) End(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	r.events = append(r.events, recordedEvent{name: name, data: data.(map[string]string)})
}

func (r *recorder) byName(name string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, 0)
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func newTestBridge(sock *fakeSocket, timeout time.Duration) *Bridge {
	b := New(Config{
		URL:       "ws://gateway.test:18789",
		Origin:    "http://gateway.test:18789",
		Token:     "test-token",
		Namespace: "vital",
		Timeout:   timeout,
	}, zerolog.Nop())
	b.dial = func(ctx context.Context, cfg gateway.Config) (gateway.Socket, error) {
		return sock, nil
	}
	return b
}

func TestRunStreamsDeltasAndFinal(t *testing.T) {
	sock := newFakeSocket()
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		switch frame.Method {
		case "connect":
			s.recv <- helloOK()
		case "chat.send":
			s.recv <- assistantText("Hi")
			s.recv <- assistantText("Hi the")
			s.recv <- assistantText("Hi there")
			s.recv <- event("chat", `{"state":"final","message":{"content":[{"type":"text","text":"Hi there!"}]}}`)
		}
	}
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)

	rec := &recorder{}
	var savedReply string
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, func(reply string) {
		savedReply = reply
	})

	deltas := rec.byName("delta")
	var combined strings.Builder
	for _, d := range deltas {
		combined.WriteString(d.data["delta"])
	}
	if combined.String() != "Hi there!" {
		t.Errorf("Expected deltas to concatenate to %q, got %q", "Hi there!", combined.String())
	}

	want := []string{"Hi", " the", "re", "!"}
	if len(deltas) != len(want) {
		t.Fatalf("Expected %d deltas, got %d: %v", len(want), len(deltas), deltas)
	}
	for i, w := range want {
		if deltas[i].data["delta"] != w {
			t.Errorf("Delta %d: expected %q, got %q", i, w, deltas[i].data["delta"])
		}
	}

	dones := rec.byName("done")
	if len(dones) != 1 {
		t.Fatalf("Expected exactly one done event, got %d", len(dones))
	}
	if dones[0].data["reply"] != "Hi there!" {
		t.Errorf("Expected reply %q, got %q", "Hi there!", dones[0].data["reply"])
	}
	if dones[0].data["sessionKey"] != "agent:vital:alice-1" {
		t.Errorf("Expected sessionKey in done event, got %q", dones[0].data["sessionKey"])
	}
	if savedReply != "Hi there!" {
		t.Errorf("Expected onFinal to receive %q, got %q", "Hi there!", savedReply)
	}
	if len(rec.byName("error")) != 0 {
		t.Errorf("Expected no error events, got %v", rec.byName("error"))
	}

	statuses := rec.byName("status")
	if len(statuses) == 0 || statuses[0].data["status"] != "connected" {
		t.Errorf("Expected first status event to be connected, got %v", statuses)
	}

	methods := sock.sentMethods()
	if len(methods) != 2 || methods[0] != "connect" || methods[1] != "chat.send" {
		t.Errorf("Expected connect then chat.send, got %v", methods)
	}
}

func TestRunShorterStreamTextIgnored(t *testing.T) {
	sock := newFakeSocket()
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		switch frame.Method {
		case "connect":
			s.recv <- helloOK()
		case "chat.send":
			s.recv <- assistantText("Hello world")
			// Regression: shorter or equal text must not emit a delta
			s.recv <- assistantText("Hello")
			s.recv <- assistantText("Hello world")
			s.recv <- event("chat", `{"state":"final","message":{"content":[]}}`)
		}
	}
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)

	rec := &recorder{}
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hi", nil, nil)

	deltas := rec.byName("delta")
	if len(deltas) != 1 || deltas[0].data["delta"] != "Hello world" {
		t.Errorf("Expected a single delta %q, got %v", "Hello world", deltas)
	}
	dones := rec.byName("done")
	if len(dones) != 1 || dones[0].data["reply"] != "Hello world" {
		t.Errorf("Expected done with accumulated text, got %v", dones)
	}
}

func TestRunTimeout(t *testing.T) {
	sock := newFakeSocket()
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		if frame.Method == "connect" {
			s.recv <- helloOK()
		}
		// chat.send never gets a response
	}
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)

	rec := &recorder{}
	b := newTestBridge(sock, 50*time.Millisecond)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	errs := rec.byName("error")
	if len(errs) != 1 {
		t.Fatalf("Expected exactly one error event, got %d", len(errs))
	}
	if !strings.Contains(errs[0].data["error"], "too long") {
		t.Errorf("Expected timeout message, got %q", errs[0].data["error"])
	}
	if len(rec.byName("done")) != 0 {
		t.Error("Expected no done event after timeout")
	}
}

func TestRunSocketClosedUnexpectedly(t *testing.T) {
	sock := newFakeSocket()
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		if frame.Method == "connect" {
			close(s.recv)
		}
	}

	rec := &recorder{}
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	errs := rec.byName("error")
	if len(errs) != 1 {
		t.Fatalf("Expected exactly one error event, got %d", len(errs))
	}
	if errs[0].data["error"] != "Gateway connection closed unexpectedly." {
		t.Errorf("Unexpected error message: %q", errs[0].data["error"])
	}
}

func TestRunSocketTransportError(t *testing.T) {
	sock := newFakeSocket()
	sock.err = fmt.Errorf("connection reset")
	close(sock.recv)

	rec := &recorder{}
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	errs := rec.byName("error")
	if len(errs) != 1 {
		t.Fatalf("Expected exactly one error event, got %d", len(errs))
	}
	if !strings.Contains(errs[0].data["error"], "Could not reach") {
		t.Errorf("Unexpected error message: %q", errs[0].data["error"])
	}
}

func TestRunChatErrorState(t *testing.T) {
	sock := newFakeSocket()
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		switch frame.Method {
		case "connect":
			s.recv <- helloOK()
		case "chat.send":
			s.recv <- event("chat", `{"state":"error","errorMessage":"model overloaded"}`)
		}
	}
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)

	rec := &recorder{}
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	errs := rec.byName("error")
	if len(errs) != 1 || errs[0].data["error"] != "model overloaded" {
		t.Errorf("Expected chat error message, got %v", errs)
	}
}

func TestRunGatewayRejection(t *testing.T) {
	sock := newFakeSocket()
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		if frame.Method == "connect" {
			s.recv <- []byte(`{"type":"res","ok":false,"error":{"code":"AUTH","message":"bad token"}}`)
		}
	}
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)

	rec := &recorder{}
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	errs := rec.byName("error")
	if len(errs) != 1 || errs[0].data["error"] != "Gateway error: bad token" {
		t.Errorf("Expected gateway rejection error, got %v", errs)
	}
}

func TestRunMalformedFramesIgnored(t *testing.T) {
	sock := newFakeSocket()
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		switch frame.Method {
		case "connect":
			s.recv <- []byte(`not json at all`)
			s.recv <- []byte(`{"event":"tick"}`)
			s.recv <- helloOK()
		case "chat.send":
			s.recv <- []byte(`{{{`)
			s.recv <- assistantText("ok")
			s.recv <- event("chat", `{"state":"final","message":{"content":[]}}`)
		}
	}
	sock.recv <- []byte(`garbage`)
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)

	rec := &recorder{}
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	dones := rec.byName("done")
	if len(dones) != 1 || dones[0].data["reply"] != "ok" {
		t.Errorf("Expected done despite malformed frames, got %v", rec.events)
	}
	if len(rec.byName("error")) != 0 {
		t.Errorf("Expected no error events, got %v", rec.byName("error"))
	}
}

func TestRunEmptyReplyFallback(t *testing.T) {
	sock := newFakeSocket()
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		switch frame.Method {
		case "connect":
			s.recv <- helloOK()
		case "chat.send":
			s.recv <- event("chat", `{"state":"final","message":{"content":[]}}`)
		}
	}
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)

	rec := &recorder{}
	b := newTestBridge(sock, time.Second)
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	dones := rec.byName("done")
	if len(dones) != 1 || dones[0].data["reply"] != "No response received." {
		t.Errorf("Expected fallback reply, got %v", dones)
	}
}

func TestRunClientDisconnectClosesSocket(t *testing.T) {
	sock := newFakeSocket()
	sock.recv <- event("connect.challenge", `{"nonce":"n","ts":1}`)
	sock.onSend = func(s *fakeSocket, frame gateway.Frame) {
		if frame.Method == "connect" {
			s.recv <- helloOK()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	b := newTestBridge(sock, time.Minute)

	doneCh := make(chan struct{})
	go func() {
		b.Run(ctx, rec, "agent:vital:alice-1", "hello", nil, nil)
		close(doneCh)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	sock.mu.Lock()
	closed := sock.closed
	sock.mu.Unlock()
	if !closed {
		t.Error("Expected upstream socket to be closed on client disconnect")
	}
}

func TestRunDialFailure(t *testing.T) {
	b := New(Config{URL: "ws://x", Namespace: "vital"}, zerolog.Nop())
	b.dial = func(ctx context.Context, cfg gateway.Config) (gateway.Socket, error) {
		return nil, fmt.Errorf("connection refused")
	}

	rec := &recorder{}
	b.Run(context.Background(), rec, "agent:vital:alice-1", "hello", nil, nil)

	errs := rec.byName("error")
	if len(errs) != 1 || !strings.Contains(errs[0].data["error"], "Could not reach") {
		t.Errorf("Expected dial failure error, got %v", rec.events)
	}
}

func TestResolveSessionKey(t *testing.T) {
	b := New(Config{Namespace: "vital"}, zerolog.Nop())

	tests := []struct {
		name       string
		username   string
		clientKey  string
		wantSame   bool
		wantPrefix string
	}{
		{"own namespace accepted", "alice", "agent:vital:alice-1700000000", true, ""},
		{"other user rejected", "bob", "agent:vital:alice-1700000000", false, "agent:vital:bob-"},
		{"unsafe characters rejected", "alice", "agent:vital:alice-17000';drop", false, "agent:vital:alice-"},
		{"empty minted", "alice", "", false, "agent:vital:alice-"},
		{"wrong prefix rejected", "alice", "agent:other:alice-1", false, "agent:vital:alice-"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := b.ResolveSessionKey(tc.username, tc.clientKey)
			if tc.wantSame {
				if got != tc.clientKey {
					t.Errorf("Expected %q to be kept, got %q", tc.clientKey, got)
				}
				return
			}
			if got == tc.clientKey {
				t.Errorf("Expected %q to be rejected", tc.clientKey)
			}
			if !strings.HasPrefix(got, tc.wantPrefix) {
				t.Errorf("Expected minted key with prefix %q, got %q", tc.wantPrefix, got)
			}
			if !sessionKeyRegex.MatchString(got) {
				t.Errorf("Minted key %q contains unsafe characters", got)
			}
		})
	}
}

func TestParseImage(t *testing.T) {
	att := ParseImage("data:image/png;base64,aGVsbG8=")
	if att == nil {
		t.Fatal("Expected attachment for valid data URL")
	}
	if att.Type != "image" || att.MimeType != "image/png" || att.Content != "aGVsbG8=" {
		t.Errorf("Unexpected attachment: %+v", att)
	}

	if ParseImage("http://example.com/cat.png") != nil {
		t.Error("Expected nil for non data URL")
	}
	if ParseImage("") != nil {
		t.Error("Expected nil for empty string")
	}
}

func TestChatMessage(t *testing.T) {
	if got := ChatMessage("  hello  ", ""); got != "hello" {
		t.Errorf("Expected trimmed message, got %q", got)
	}
	if got := ChatMessage("", "data:image/png;base64,x"); got != "What is this?" {
		t.Errorf("Expected image fallback prompt, got %q", got)
	}
	if got := ChatMessage("", ""); got != "" {
		t.Errorf("Expected empty message, got %q", got)
	}
}

func TestTruncateReply(t *testing.T) {
	if got := TruncateReply(""); got != "No response received." {
		t.Errorf("Expected fallback for empty reply, got %q", got)
	}
	long := strings.Repeat("a", 60000)
	if got := TruncateReply(long); len(got) != 50000 {
		t.Errorf("Expected reply truncated to 50000, got %d", len(got))
	}
	if got := TruncateReply("short"); got != "short" {
		t.Errorf("Expected short reply untouched, got %q", got)
	}
}
