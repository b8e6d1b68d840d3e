package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Store is the key-value store exposed by a store server. Get returns nil
// for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

var null = json.RawMessage("null")

// LogEntry is the payload of a log.write request.
type LogEntry struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// NewStoreServer returns a server answering store.get and store.set on top
// of store, and log.write through logger. A nil logger disables log.write.
func NewStoreServer(channelID string, store Store, logger *log.Logger) *Server {
	s := NewServer(channelID)

	s.Handle(MethodStoreGet, func(
		ctx context.Context, key string, _ json.RawMessage,
	) (json.RawMessage, error) {
		value, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return encodeValue(value)
	})

	s.Handle(MethodStoreSet, func(
		ctx context.Context, key string, raw json.RawMessage,
	) (json.RawMessage, error) {
		value, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, fmt.Errorf("missing value for key %q", key)
		}
		if err := store.Set(ctx, key, value); err != nil {
			return nil, err
		}
		return null, nil
	})

	if logger != nil {
		s.Handle(MethodLog, func(
			_ context.Context, _ string, raw json.RawMessage,
		) (json.RawMessage, error) {
			var entry LogEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return nil, fmt.Errorf("invalid log entry: %w", err)
			}
			level, err := log.ParseLevel(entry.Level)
			if err != nil {
				level = log.InfoLevel
			}
			logger.WithFields(entry.Fields).WithField("remote", true).Log(level, entry.Message)
			return null, nil
		})
	}

	return s
}

func encodeValue(value []byte) (json.RawMessage, error) {
	if value == nil {
		return null, nil
	}
	return json.Marshal(value)
}

func decodeValue(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return nil, nil
	}
	var value []byte
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	return value, nil
}

// RemoteStore is a Store whose reads and writes go through a bridge client.
type RemoteStore struct {
	client *Client
}

func NewRemoteStore(client *Client) *RemoteStore {
	return &RemoteStore{client}
}

func (s *RemoteStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Call(ctx, MethodStoreGet, key, nil)
	if err != nil {
		return nil, err
	}
	return decodeValue(raw)
}

func (s *RemoteStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	_, err = s.client.Call(ctx, MethodStoreSet, key, raw)
	return err
}
