// websocket/types.go
package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/LilVoxy/retail_etl/ETL/utils"
)

// Client - подписчик потока прогресса
type Client struct {
	ID     int
	Socket *websocket.Conn
	Send   chan []byte
}

// Manager рассылает этапы запусков всем подключенным клиентам
type Manager struct {
	Clients    map[int]*Client
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client

	logger *utils.ETLLogger
	done   chan struct{}

	// последний отправленный этап, повторяется новым клиентам
	last []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
