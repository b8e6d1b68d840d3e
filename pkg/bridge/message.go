package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using a closed transport or client.
	ErrClosed = errors.New("bridge: closed")
	// ErrUnknownMethod ...
	ErrUnknownMethod = errors.New("bridge: unknown method")
)

// MessageType ...
type MessageType string

const (
	TypeRequest  MessageType = "request"
	TypeResponse MessageType = "response"
)

// Method identifies the operation requested to a server.
type Method string

const (
	// MethodStoreGet reads the value at key.
	MethodStoreGet Method = "store.get"
	// MethodStoreSet writes the value at key.
	MethodStoreSet Method = "store.set"
	// MethodLog writes a log entry.
	MethodLog Method = "log.write"
)

// Valid returns whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodStoreGet, MethodStoreSet, MethodLog:
		return true
	}
	return false
}

// Message is the envelope of both requests and responses. ID correlates a
// response with its request and is unique per request.
type Message struct {
	ChannelID string          `json:"channelId"`
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`
	Method    Method          `json:"method"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// RemoteError is an error returned by the server.
type RemoteError struct {
	Method Method
	Key    string
	Msg    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bridge: %s %q: %s", e.Method, e.Key, e.Msg)
}
