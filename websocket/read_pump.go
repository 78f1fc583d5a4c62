// websocket/read_pump.go
package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// readPump читает управляющие кадры и обнаруживает отключения. Клиентам
// прогресса нечего отправлять, поэтому кадры данных игнорируются.
func (c *Client) readPump(manager *Manager) {
	defer func() {
		select {
		case manager.Unregister <- c:
		case <-manager.done:
		}
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				manager.logger.Debug("Ошибка чтения у клиента прогресса %d: %v", c.ID, err)
			}
			return
		}
	}
}
