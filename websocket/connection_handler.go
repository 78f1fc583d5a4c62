// websocket/connection_handler.go
package websocket

import (
	"net/http"
	"sync/atomic"
)

var clientSeq atomic.Int64

// HandleConnections обновляет соединение до WebSocket и подписывает его на этапы запусков
func (manager *Manager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.logger.Error("Ошибка при обновлении до WebSocket: %v", err)
		return
	}

	client := &Client{
		ID:     int(clientSeq.Add(1)),
		Socket: conn,
		Send:   make(chan []byte, sendBufferSize),
	}

	select {
	case manager.Register <- client:
	case <-manager.done:
		conn.Close()
		return
	}

	go manager.writeMilestones(client)
	go client.readPump(manager)
}
