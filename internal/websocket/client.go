package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one websocket connection watching one group's activity feed.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	groupID int64
	userID  int64
	send    chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, groupID, userID int64) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		groupID: groupID,
		userID:  userID,
		send:    make(chan []byte, sendBufferSize),
	}
}

// hello is the first frame on every connection. It tells the browser which
// group the feed belongs to before any activity arrives.
type hello struct {
	Type    string `json:"type"`
	GroupID int64  `json:"group_id"`
}

// Run registers the client and streams messages until the peer goes away or
// ctx ends. The feed is one-way: anything the peer sends closes the
// connection.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx = c.conn.CloseRead(ctx)

	first, _ := json.Marshal(hello{Type: "connected", GroupID: c.groupID})
	if err := c.write(ctx, first); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusNormalClosure, "")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				c.logClose(err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.logClose(err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}

func (c *Client) logClose(err error) {
	if errors.Is(err, context.Canceled) || ws.CloseStatus(err) != -1 {
		return
	}
	c.hub.logger.Debug("websocket write failed", "group_id", c.groupID, "user_id", c.userID, "error", err)
}
