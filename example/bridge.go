package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/Gurux/gxbuzzer-go"
	"github.com/gorilla/websocket"
)

type messageType string

const (
	msgEvent messageType = "event"
	msgState messageType = "state"
	msgError messageType = "error"
)

type wsMessage struct {
	Type    messageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type eventPayload struct {
	Kind  string `json:"kind"`
	Param int    `json:"param"`
}

type statePayload struct {
	State   string `json:"state"`
	Version string `json:"version,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// commandMessage is sent by the clients.
type commandMessage struct {
	Command string `json:"command"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// bridge forwards buzzer events to websocket clients and passes their
// commands to the console.
type bridge struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	buzzer   *gxbuzzer.GXBuzzer
	upgrader websocket.Upgrader
}

func newBridge(buzzer *gxbuzzer.GXBuzzer) *bridge {
	return &bridge{
		clients: make(map[*client]bool),
		buzzer:  buzzer,
	}
}

func (b *bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := b.addClient(conn)

	go func() {
		defer func() {
			b.removeClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd commandMessage
			if err := json.Unmarshal(data, &cmd); err != nil {
				b.sendTo(c, wsMessage{Type: msgError, Payload: errorPayload{Message: err.Error()}})
				continue
			}
			if err := b.command(cmd.Command); err != nil {
				b.sendTo(c, wsMessage{Type: msgError, Payload: errorPayload{Message: err.Error()}})
			}
		}
	}()
}

func (b *bridge) command(name string) error {
	switch name {
	case "init":
		return b.buzzer.Init()
	case "arm":
		return b.buzzer.Arm()
	case "reset":
		return b.buzzer.Reset()
	case "full_reset":
		return b.buzzer.FullReset()
	}
	return fmt.Errorf("unknown command: %q", name)
}

func (b *bridge) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	b.sendTo(c, b.stateMessage())
	return c
}

func (b *bridge) removeClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

func (b *bridge) stateMessage() wsMessage {
	p := statePayload{State: b.buzzer.State().String()}
	if v, ok := b.buzzer.Version(); ok {
		p.Version = v.String()
	}
	return wsMessage{Type: msgState, Payload: p}
}

func (b *bridge) publishEvent(kind gxbuzzer.EventKind, param int) {
	b.broadcast(wsMessage{Type: msgEvent, Payload: eventPayload{Kind: kind.String(), Param: param}})
}

func (b *bridge) publishState() {
	b.broadcast(b.stateMessage())
}

func (b *bridge) sendTo(c *client, msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		// Client too slow, drop the message
	}
}

func (b *bridge) broadcast(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		b.mu.RLock()
		ok := b.clients[c]
		sent := false
		if ok {
			select {
			case c.send <- data:
				sent = true
			default:
			}
		}
		b.mu.RUnlock()
		if ok && !sent {
			// Client can't keep up, disconnect it
			log.Printf("ws client too slow, disconnecting")
			b.removeClient(c)
		}
	}
}
