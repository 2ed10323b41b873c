// Command bot is a headless client for soak-testing the server: it joins
// over websocket, wanders with random intent changes, and logs the
// authoritative state it gets back.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ProgramComputer/MarsInterloper-sub000/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "player name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	// Wander: re-roll the movement intent every couple of seconds, with an
	// occasional jump.
	go func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			in := protocol.InputMsg{
				Type:            protocol.TypeInput,
				ProtocolVersion: protocol.Version,
				Forward:         rng.Float32()*2 - 1,
				Strafe:          rng.Float32()*2 - 1,
				Jump:            rng.Intn(8) == 0,
			}
			if err := conn.WriteJSON(in); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME player_id=%s tick_rate=%d seed=%d spawn=%v",
				w.PlayerID, w.WorldParams.TickRateHz, w.WorldParams.Seed, w.Spawn)

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			if st.Tick%300 == 0 {
				logger.Printf("tick=%d pos=%v on_ground=%v lat=%.4f lon=%.4f chunks=%d/%d",
					st.Tick, st.Position, st.OnGround, st.Latitude, st.Longitude,
					st.ChunksLoaded, st.ChunksTotal)
			}

		case protocol.TypeError:
			var em protocol.ErrorMsg
			if err := json.Unmarshal(msg, &em); err != nil {
				continue
			}
			logger.Fatalf("server error: %s %s", em.Code, em.Message)
		}
	}
}
