package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/protocol"
)

func TestDecodeBase(t *testing.T) {
	b, err := protocol.DecodeBase([]byte(`{"type":"INPUT","protocol_version":"1.0","forward":1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Type != protocol.TypeInput {
		t.Fatalf("type = %q, want INPUT", b.Type)
	}
	if b.ProtocolVersion != protocol.Version {
		t.Fatalf("version = %q, want %q", b.ProtocolVersion, protocol.Version)
	}
}

func TestValidateHello(t *testing.T) {
	good := []byte(`{"type":"HELLO","protocol_version":"1.0","player_name":"ares"}`)
	if err := protocol.ValidateHello(good); err != nil {
		t.Fatalf("valid HELLO rejected: %v", err)
	}

	bad := map[string]string{
		"missing name": `{"type":"HELLO","protocol_version":"1.0"}`,
		"empty name":   `{"type":"HELLO","protocol_version":"1.0","player_name":""}`,
		"wrong type":   `{"type":"INPUT","protocol_version":"1.0","player_name":"ares"}`,
	}
	for name, raw := range bad {
		if err := protocol.ValidateHello([]byte(raw)); err == nil {
			t.Errorf("%s: invalid HELLO accepted", name)
		}
	}
}

func TestValidateInput(t *testing.T) {
	good := []byte(`{"type":"INPUT","protocol_version":"1.0","forward":0.5,"strafe":-1,"jump":true}`)
	if err := protocol.ValidateInput(good); err != nil {
		t.Fatalf("valid INPUT rejected: %v", err)
	}
	if err := protocol.ValidateInput([]byte(`{"type":"INPUT","protocol_version":"1.0","forward":3}`)); err == nil {
		t.Fatalf("out-of-range axis accepted")
	}
}

func TestStateMsgRoundTrip(t *testing.T) {
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            42,
		Position:        [3]float32{1, 5.1, -3},
		OnGround:        true,
		Latitude:        18.44,
		Longitude:       77.45,
		ChunksLoaded:    25,
		ChunksTotal:     25,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil || base.Type != protocol.TypeState {
		t.Fatalf("state message not routable: %v %q", err, base.Type)
	}
}

func TestIsKnownCode(t *testing.T) {
	if !protocol.IsKnownCode(protocol.ErrProtoBadRequest) {
		t.Fatalf("known code rejected")
	}
	if !protocol.IsKnownCode("") {
		t.Fatalf("empty code should pass")
	}
	if protocol.IsKnownCode("E_MADE_UP") {
		t.Fatalf("unknown code accepted")
	}
}
