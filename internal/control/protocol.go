// Package control exposes a running cube to other processes.
//
// Architecture:
//
//	Client (cubespin send) → Unix socket / TCP → Server → frame.Loop.Post → cube
//
// Every command is journaled as pending before it runs and committed
// with its outcome afterwards, so a crash leaves the interrupted command
// in the database for the next start to replay.
package control

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Mr-Dark-debug/cubespin/internal/orientation"
	"github.com/Mr-Dark-debug/cubespin/pkg/jsonutil"
)

// ============================================================
// Wire Protocol
// ============================================================

// MessageType discriminates the kind of payload in the wire protocol.
type MessageType byte

const (
	MsgApply   MessageType = 0x01
	MsgRotate  MessageType = 0x02
	MsgFocus   MessageType = 0x03
	MsgDefocus MessageType = 0x04
	MsgSpin    MessageType = 0x05
	MsgStatus  MessageType = 0x06
	MsgError   MessageType = 0x7f
)

// ACK bytes written after every request.
const (
	AckOK    byte = 0x00
	AckError byte = 0x01
)

// MaxMessageSize is the largest payload either side accepts.
const MaxMessageSize = 10 * 1024 * 1024

// ErrMessageTooLarge is returned for payloads over MaxMessageSize.
var ErrMessageTooLarge = errors.New("message too large")

var messageNames = map[MessageType]string{
	MsgApply:   "apply",
	MsgRotate:  "rotate",
	MsgFocus:   "focus",
	MsgDefocus: "defocus",
	MsgSpin:    "spin",
	MsgStatus:  "status",
	MsgError:   "error",
}

func (t MessageType) String() string {
	if name, ok := messageNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(t))
}

// ParseMessageType maps a command name to its message type.
func ParseMessageType(name string) (MessageType, bool) {
	for t, n := range messageNames {
		if n == name && t != MsgError {
			return t, true
		}
	}
	return 0, false
}

// WriteMessage writes one frame:
//
//	[1 byte type][4 bytes length (big-endian)][payload JSON]
func WriteMessage(w io.Writer, t MessageType, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(payload))
	}
	buf := make([]byte, 5+len(payload))
	buf[0] = byte(t)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing %s message: %w", t, err)
	}
	return nil
}

// ReadMessage reads one frame written by WriteMessage. A clean end of
// stream before the type byte returns io.EOF unwrapped.
func ReadMessage(r io.Reader) (MessageType, []byte, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:1]); err != nil {
		return 0, nil, err
	}
	if _, err := io.ReadFull(r, header[1:]); err != nil {
		return 0, nil, fmt.Errorf("reading message length: %w", err)
	}
	t := MessageType(header[0])
	n := binary.BigEndian.Uint32(header[1:])
	if n > MaxMessageSize {
		return t, nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return t, nil, fmt.Errorf("reading payload: %w", err)
	}
	return t, payload, nil
}

// ============================================================
// Payloads
// ============================================================

// Vector is a lenient angle triple. Missing or non-numeric components
// are 0.
type Vector struct {
	X jsonutil.Float `json:"x"`
	Y jsonutil.Float `json:"y"`
	Z jsonutil.Float `json:"z"`
}

// Angles converts v to orientation angles.
func (v Vector) Angles() orientation.Angles {
	return orientation.Angles{float64(v.X), float64(v.Y), float64(v.Z)}
}

// ApplyCommand sets the orientation at once.
type ApplyCommand struct {
	Side   string  `json:"side,omitempty"`
	Angles *Vector `json:"angles,omitempty"`
}

// RotateCommand starts continuous rotation. Speeds are keyed by axis
// name ("x", "y", "z").
type RotateCommand struct {
	StartSide string                    `json:"start_side,omitempty"`
	Start     *Vector                   `json:"start,omitempty"`
	Speeds    map[string]jsonutil.Float `json:"speeds,omitempty"`
	Direction string                    `json:"direction,omitempty"`
}

// FocusCommand binds focus options and focuses the cube.
type FocusCommand struct {
	BounceBack bool           `json:"bounce_back,omitempty"`
	SpinTo     string         `json:"spin_to,omitempty"`
	Target     *Vector        `json:"target,omitempty"`
	Speed      jsonutil.Float `json:"speed,omitempty"`
}

// SpinCommand runs a one-shot spin. Speed paces all axes together;
// Speeds is used when Speed is 0.
type SpinCommand struct {
	Target Vector         `json:"target"`
	Speed  jsonutil.Float `json:"speed,omitempty"`
	Speeds *Vector        `json:"speeds,omitempty"`
	Easing string         `json:"easing,omitempty"`
	// Resume restarts continuous rotation when the spin lands.
	Resume bool `json:"resume,omitempty"`
}

// StatusReply answers MsgStatus.
type StatusReply struct {
	Selector string     `json:"selector"`
	Angles   [3]float64 `json:"angles"`
	Display  [3]float64 `json:"display"`
	Mode     string     `json:"mode"`
	Focused  bool       `json:"focused"`
	Frames   uint64     `json:"frames"`
}

// ErrorReply follows an AckError.
type ErrorReply struct {
	Error string `json:"error"`
}
