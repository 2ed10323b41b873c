package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/protocol"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/terrain"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/tuning"
	"github.com/ProgramComputer/MarsInterloper-sub000/internal/sim/world"
)

func startTestServer(t *testing.T) (url string, w *world.World) {
	t.Helper()
	cfg := tuning.Default()
	cfg.Chunks.LoadRadius = 1
	w = world.New(cfg, terrain.NewProcedural(cfg.Terrain.Seed, cfg.Terrain.TargetMaxHeight), nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Run(ctx) }()

	srv := httptest.NewServer(NewServer(w, nil).Handler())
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), w
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) ([]byte, protocol.BaseMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return raw, base
}

func TestHandshakeAndState(t *testing.T) {
	url, _ := startTestServer(t)
	conn := dial(t, url)

	hello, _ := json.Marshal(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      "ares",
	})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	raw, base := readMsg(t, conn)
	if base.Type != protocol.TypeWelcome {
		t.Fatalf("first frame %q, want WELCOME", base.Type)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(raw, &welcome); err != nil {
		t.Fatalf("bad welcome: %v", err)
	}
	if welcome.PlayerID == "" || welcome.WorldParams.TickRateHz <= 0 {
		t.Fatalf("incomplete welcome: %+v", welcome)
	}

	// The world loop publishes state every tick.
	_, base = readMsg(t, conn)
	if base.Type != protocol.TypeState {
		t.Fatalf("post-welcome frame %q, want STATE", base.Type)
	}

	// Inputs are accepted without closing the connection.
	input, _ := json.Marshal(protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Forward:         1,
	})
	if err := conn.WriteMessage(websocket.TextMessage, input); err != nil {
		t.Fatalf("write input: %v", err)
	}
	_, base = readMsg(t, conn)
	if base.Type != protocol.TypeState {
		t.Fatalf("frame after input %q, want STATE", base.Type)
	}
}

func TestBadProtocolVersionRejected(t *testing.T) {
	url, _ := startTestServer(t)
	conn := dial(t, url)

	hello := `{"type":"HELLO","protocol_version":"0.1","player_name":"old"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(hello)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, base := readMsg(t, conn)
	if base.Type != protocol.TypeError {
		t.Fatalf("frame %q, want ERROR", base.Type)
	}
	var em protocol.ErrorMsg
	if err := json.Unmarshal(raw, &em); err != nil || em.Code != protocol.ErrProtoVersion {
		t.Fatalf("error frame %s (%v)", raw, err)
	}
}

func TestMalformedHelloRejected(t *testing.T) {
	url, _ := startTestServer(t)
	conn := dial(t, url)

	hello := `{"type":"HELLO","protocol_version":"1.0"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(hello)); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, base := readMsg(t, conn)
	if base.Type != protocol.TypeError {
		t.Fatalf("frame %q, want ERROR; raw=%s", base.Type, raw)
	}
}
