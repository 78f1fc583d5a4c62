// websocket/constants.go
package websocket

import (
	"time"
)

// Настройки WebSocket-соединения
const (
	// Время на запись сообщения клиенту
	writeWait = 10 * time.Second

	// Время на чтение следующего pong от клиента
	pongWait = 60 * time.Second

	// Период ping, должен быть меньше pongWait
	pingPeriod = (pongWait * 9) / 10

	// Клиенты прогресса отправляют только управляющие кадры
	maxMessageSize = 4 * 1024

	// Буфер исходящих сообщений на клиента
	sendBufferSize = 64

	// Буфер этапов между запуском и хабом
	broadcastBufferSize = 256
)
