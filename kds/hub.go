package kds

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"comanda/utils"
)

// Hub owns the named subscriber groups for this process. It is built once in
// main and handed to whoever needs to publish; there is no package-global
// registry.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[*websocket.Conn]bool),
	}
}

// Join adds a connection to a group, creating the group on first use.
func (h *Hub) Join(group string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[group] == nil {
		h.groups[group] = make(map[*websocket.Conn]bool)
	}
	h.groups[group][conn] = true
}

// Leave removes a connection from one group. Empty groups are dropped so the
// map does not grow with every table code ever seen.
func (h *Hub) Leave(group string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.groups[group]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.groups, group)
		}
	}
}

// LeaveAll removes a connection from every group it joined and closes it.
// Connection handlers defer this so cleanup runs even on abrupt disconnects.
func (h *Hub) LeaveAll(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for group, conns := range h.groups {
		if conns[conn] {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.groups, group)
			}
		}
	}
	conn.Close()
}

// GroupSize reports current membership, mainly for tests and diagnostics.
func (h *Hub) GroupSize(group string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group])
}

// Publish sends msg to every connection currently in the group. Connections
// that join later never see it; there is no buffering or replay. Write
// failures are logged and skipped so one dead display cannot stall the rest.
func (h *Hub) Publish(group string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.deliver(group, data)
	return nil
}

func (h *Hub) deliver(group string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.groups[group]
	if len(conns) == 0 {
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("kds: write to group %s failed: %v", group, err)
			continue
		}
	}
}
