package sdk

import (
	"encoding/json"
	"net/url"

	"github.com/gorilla/websocket"
)

type Console struct {
	conn *websocket.Conn
}

func (c *Client) OpenConsole(id string) (*Console, error) {
	wsURL, err := c.GetWebSocketURL("/ws/servers/" + url.PathEscape(id) + "/console")
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}
	return &Console{conn: conn}, nil
}

// Next blocks for the next message. The first one is always a snapshot.
func (c *Console) Next() (*ConsoleMessage, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg ConsoleMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Console) Send(command string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(command))
}

func (c *Console) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
