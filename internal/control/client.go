package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// Client sends commands to a control server over one connection.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Dial connects to the server at addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout(Network(addr), addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return NewClient(conn, timeout), nil
}

// NewClient wraps an established connection. A positive timeout bounds
// every request.
func NewClient(conn net.Conn, timeout time.Duration) *Client {
	return &Client{conn: conn, timeout: timeout}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send encodes cmd as JSON, sends it as type t and waits for the ACK.
// A nil cmd sends an empty payload. The reply frame of MsgStatus is
// returned as is.
func (c *Client) Send(t MessageType, cmd interface{}) ([]byte, error) {
	var payload []byte
	if cmd != nil {
		var err error
		if payload, err = json.Marshal(cmd); err != nil {
			return nil, fmt.Errorf("marshaling %s command: %w", t, err)
		}
	}
	return c.SendRaw(t, payload)
}

// SendRaw sends an already encoded payload.
func (c *Client) SendRaw(t MessageType, payload []byte) ([]byte, error) {
	if c.timeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetDeadline(time.Time{})
	}

	if err := WriteMessage(c.conn, t, payload); err != nil {
		return nil, err
	}

	ack := make([]byte, 1)
	if _, err := c.conn.Read(ack); err != nil {
		return nil, fmt.Errorf("reading ack: %w", err)
	}

	switch ack[0] {
	case AckOK:
		if t != MsgStatus {
			return nil, nil
		}
		_, reply, err := ReadMessage(c.conn)
		if err != nil {
			return nil, fmt.Errorf("reading status reply: %w", err)
		}
		return reply, nil
	case AckError:
		_, body, err := ReadMessage(c.conn)
		if err != nil {
			return nil, fmt.Errorf("reading error reply: %w", err)
		}
		var reply ErrorReply
		if err := json.Unmarshal(body, &reply); err != nil || reply.Error == "" {
			return nil, errors.New("command failed")
		}
		return nil, errors.New(reply.Error)
	default:
		return nil, fmt.Errorf("unexpected ack byte 0x%02x", ack[0])
	}
}

// Status asks the server for the cube's live state.
func (c *Client) Status() (*StatusReply, error) {
	body, err := c.Send(MsgStatus, nil)
	if err != nil {
		return nil, err
	}
	var reply StatusReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("unmarshaling status: %w", err)
	}
	return &reply, nil
}
