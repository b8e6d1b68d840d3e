package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Client sends requests over a transport and matches responses by id, so
// that any number of calls, even on the same key, can be in flight.
type Client struct {
	channelID string
	transport Transport

	lock    sync.Mutex
	pending map[string]chan Message
	closed  bool
	done    chan struct{}
}

// NewClient starts reading responses from t. The client owns t from now on.
func NewClient(channelID string, t Transport) *Client {
	c := &Client{
		channelID: channelID,
		transport: t,
		pending:   make(map[string]chan Message),
		done:      make(chan struct{}),
	}
	go c.listen()
	return c
}

func (c *Client) listen() {
	defer c.shutdown()

	for {
		msg, err := c.transport.Receive(context.Background())
		if err != nil {
			return
		}
		if msg.ChannelID != c.channelID || msg.Type != TypeResponse {
			continue
		}

		c.lock.Lock()
		ch, ok := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.lock.Unlock()
		if !ok {
			log.WithField("id", msg.ID).Debug("bridge: dropping unmatched response")
			continue
		}
		ch <- msg
	}
}

func (c *Client) shutdown() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Call sends a request and waits for its response. Canceling ctx abandons
// the request; a late response is discarded.
func (c *Client) Call(
	ctx context.Context, method Method, key string, value json.RawMessage,
) (json.RawMessage, error) {
	id := uuid.New().String()
	ch := make(chan Message, 1)

	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.lock.Unlock()

	forget := func() {
		c.lock.Lock()
		delete(c.pending, id)
		c.lock.Unlock()
	}

	req := Message{
		ChannelID: c.channelID,
		Type:      TypeRequest,
		ID:        id,
		Method:    method,
		Key:       key,
		Value:     value,
	}
	if err := c.transport.Send(ctx, req); err != nil {
		forget()
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, &RemoteError{Method: method, Key: key, Msg: resp.Error}
		}
		return resp.Value, nil
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	case <-c.done:
		forget()
		return nil, ErrClosed
	}
}

// Pending returns the number of requests awaiting a response.
func (c *Client) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

func (c *Client) Close() error {
	err := c.transport.Close()
	<-c.done
	return err
}
