// network/protocol.go
package network

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Message ids. 1xx are client requests, 2xx queries, 3xx server pushes and
// 4xx errors.
const (
	MsgTypeHeartbeat  = 1
	MsgTypeJoinArena  = 101
	MsgTypeLeaveArena = 102
	MsgTypeSpectate   = 103
	MsgTypeReady      = 104
	MsgTypeChat       = 105
	MsgTypeArenaList  = 201
	MsgTypeArenaState = 301
	MsgTypeAnnounce   = 302
	MsgTypeMatchStart = 303
	MsgTypeMatchEnd   = 305
	MsgTypeError      = 400
)

// headerSize is the fixed frame prefix: 2-byte message id then 2-byte payload
// length, both big endian.
const headerSize = 4

var ErrMalformedPacket = errors.New("malformed packet")

// Packet is one decoded frame.
type Packet struct {
	MsgID uint16
	Data  []byte
}

// EncodePacket frames a payload for the wire.
func EncodePacket(msgID uint16, data []byte) []byte {
	frame := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint16(frame[0:2], msgID)
	binary.BigEndian.PutUint16(frame[2:headerSize], uint16(len(data)))
	copy(frame[headerSize:], data)
	return frame
}

// DecodePacket parses one frame. Bytes past the declared payload length are
// dropped.
func DecodePacket(frame []byte) (*Packet, error) {
	if len(frame) < headerSize {
		return nil, fmt.Errorf("%w: %d byte frame", ErrMalformedPacket, len(frame))
	}
	length := int(binary.BigEndian.Uint16(frame[2:headerSize]))
	if len(frame)-headerSize < length {
		return nil, fmt.Errorf("%w: declared %d payload bytes, carried %d",
			ErrMalformedPacket, length, len(frame)-headerSize)
	}
	return &Packet{
		MsgID: binary.BigEndian.Uint16(frame[0:2]),
		Data:  frame[headerSize : headerSize+length],
	}, nil
}
