package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinArena  = 101
	MsgTypeLeaveArena = 102
	MsgTypeReady      = 104
	MsgTypeChat       = 105
	MsgTypeArenaList  = 201
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	log.Println("Requesting arena list...")
	if err := send(c, MsgTypeArenaList, []byte{}); err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Commands: join <arena> [team], ready [class], say <text>, leave")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var msgID uint16
			req := map[string]string{}

			switch fields[0] {
			case "join":
				if len(fields) < 2 {
					log.Println("Usage: join <arena> [team]")
					continue
				}
				msgID = MsgTypeJoinArena
				req["arena"] = fields[1]
				if len(fields) > 2 {
					req["team"] = fields[2]
				}
			case "ready":
				msgID = MsgTypeReady
				if len(fields) > 1 {
					req["class"] = fields[1]
				}
			case "say":
				msgID = MsgTypeChat
				req["text"] = strings.Join(fields[1:], " ")
			case "leave":
				msgID = MsgTypeLeaveArena
			default:
				log.Printf("Unknown command: %s", fields[0])
				continue
			}

			data, _ := json.Marshal(req)
			if err := send(c, msgID, data); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
