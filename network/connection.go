// network/connection.go
package network

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection is one framed transport to a client.
type Connection interface {
	Send(msgID uint16, data []byte) error
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

// WSConnection carries packets over a websocket. Writes may come from any
// goroutine and are serialized; reads stay on the per-connection reader loop.
type WSConnection struct {
	sock    *websocket.Conn
	writeMu sync.Mutex
}

func NewWSConnection(sock *websocket.Conn) *WSConnection {
	return &WSConnection{sock: sock}
}

func (c *WSConnection) Send(msgID uint16, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.sock.WriteMessage(websocket.BinaryMessage, EncodePacket(msgID, data)); err != nil {
		return fmt.Errorf("send packet %d: %w", msgID, err)
	}
	return nil
}

func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, frame, err := c.sock.ReadMessage()
	if err != nil {
		return nil, err
	}
	return DecodePacket(frame)
}

// SetHeartbeat pushes the read deadline out to twice the heartbeat interval.
// The server calls it again on every heartbeat packet.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.sock.SetReadDeadline(time.Now().Add(2 * interval))
}

func (c *WSConnection) Close() error { return c.sock.Close() }

func (c *WSConnection) RemoteAddr() net.Addr { return c.sock.RemoteAddr() }
