package viewer

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// command is the incoming websocket message format.
type command struct {
	Type string `json:"type"` // "start", "stop", "reset" or "step"
}

// handleWebSocket streams state events for one instance and accepts
// start/stop/reset/step commands. Every animated step produces one "state"
// event; a finished run produces "run_end".
func handleWebSocket(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, err := reg.Get(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, `{"error":"demo not found"}`, http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("viewer: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		events, unsubscribe := inst.Subscribe()
		defer unsubscribe()

		var writeMu sync.Mutex
		send := func(ev Event) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteJSON(ev)
		}

		if err := send(Event{Type: "state", ID: inst.ID, Kind: inst.Kind, State: inst.Demo().Snapshot()}); err != nil {
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			readCommands(conn, inst, send)
		}()

		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					writeMu.Lock()
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "demo removed"))
					writeMu.Unlock()
					return
				}
				if err := send(ev); err != nil {
					log.Printf("viewer: websocket write: %v", err)
					return
				}
			}
		}
	}
}

func readCommands(conn *websocket.Conn, inst *Instance, send func(Event) error) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("viewer: websocket read: %v", err)
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			send(Event{Type: "error", ID: inst.ID, Kind: inst.Kind, Error: "invalid message format"})
			continue
		}

		switch cmd.Type {
		case "start":
			if _, err := inst.Start(); err != nil {
				send(Event{Type: "error", ID: inst.ID, Kind: inst.Kind, Error: err.Error()})
			}
		case "stop":
			inst.Stop()
		case "reset":
			inst.Reset()
		case "step":
			if _, err := inst.Step(); err != nil {
				send(Event{Type: "error", ID: inst.ID, Kind: inst.Kind, Error: err.Error()})
			}
		default:
			send(Event{Type: "error", ID: inst.ID, Kind: inst.Kind, Error: "unknown command: " + cmd.Type})
		}
	}
}
