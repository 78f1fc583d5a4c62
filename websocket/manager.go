// websocket/manager.go
package websocket

import (
	"context"
	"encoding/json"

	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// NewManager создает новый хаб прогресса
func NewManager(logger *utils.ETLLogger) *Manager {
	return &Manager{
		Broadcast:  make(chan []byte, broadcastBufferSize),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[int]*Client),
		logger:     logger.With("component", "progress_hub"),
		done:       make(chan struct{}),
	}
}

// Run обслуживает хаб, пока ctx не завершен
func (manager *Manager) Run(ctx context.Context) {
	defer close(manager.done)

	for {
		select {
		case client := <-manager.Register:
			manager.Clients[client.ID] = client
			manager.logger.Debug("Клиент прогресса %d подключен", client.ID)
			if manager.last != nil {
				client.Send <- manager.last
			}

		case client := <-manager.Unregister:
			if _, ok := manager.Clients[client.ID]; ok {
				delete(manager.Clients, client.ID)
				close(client.Send)
				manager.logger.Debug("Клиент прогресса %d отключен", client.ID)
			}

		case message := <-manager.Broadcast:
			manager.last = message
			manager.broadcast(message)

		case <-ctx.Done():
			for id, client := range manager.Clients {
				delete(manager.Clients, id)
				close(client.Send)
			}
			return
		}
	}
}

// broadcast отправляет message всем клиентам, отключая отставших
func (manager *Manager) broadcast(message []byte) {
	for id, client := range manager.Clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(manager.Clients, id)
			manager.logger.Warn("Клиент прогресса %d слишком медленный, отключен", id)
		}
	}
}

// Notify публикует этап подключенным клиентам. Он не блокирует
// запуск: если хаб переполнен, этап отбрасывается.
func (manager *Manager) Notify(m utils.Milestone) {
	data, err := json.Marshal(m)
	if err != nil {
		manager.logger.Error("Не удалось сериализовать этап: %v", err)
		return
	}

	select {
	case manager.Broadcast <- data:
	default:
		manager.logger.Warn("Хаб прогресса переполнен, этап %s запуска %s отброшен", m.Phase, m.RunID)
	}
}
