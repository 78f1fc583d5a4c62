// websocket/writer.go
package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// writeMilestones - единственный писатель в сокет c: один JSON-этап на
// текстовый кадр и ping для поддержания соединения. Завершается, когда хаб
// закрывает c.Send или запись не удалась.
func (manager *Manager) writeMilestones(c *Client) {
	keepAlive := time.NewTicker(pingPeriod)
	defer keepAlive.Stop()
	defer c.Socket.Close()

	for {
		var err error
		select {
		case milestone, open := <-c.Send:
			if !open {
				c.write(websocket.CloseMessage, nil)
				return
			}
			err = c.write(websocket.TextMessage, milestone)
		case <-keepAlive.C:
			err = c.write(websocket.PingMessage, nil)
		}

		if err != nil {
			manager.logger.Debug("Ошибка записи клиенту прогресса %d: %v", c.ID, err)
			return
		}
	}
}

// write отправляет один кадр, сдаваясь после writeWait
func (c *Client) write(messageType int, data []byte) error {
	if err := c.Socket.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Socket.WriteMessage(messageType, data)
}
