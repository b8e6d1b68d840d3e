package bridge

import (
	"context"
	"sync"
)

// Transport carries messages between a client and a server.
type Transport interface {
	// Send delivers the message to the other end.
	Send(ctx context.Context, msg Message) error
	// Receive blocks until a message arrives. It returns ErrClosed once the
	// transport is closed.
	Receive(ctx context.Context) (Message, error)
	Close() error
}

type pipeEnd struct {
	in   chan Message
	peer *pipeEnd
	done chan struct{}
	once *sync.Once
}

// Pipe returns the two connected ends of an in-memory transport. Closing
// either end closes both.
func Pipe() (Transport, Transport) {
	done := make(chan struct{})
	once := &sync.Once{}
	a := &pipeEnd{in: make(chan Message, 64), done: done, once: once}
	b := &pipeEnd{in: make(chan Message, 64), done: done, once: once}
	a.peer, b.peer = b, a
	return a, b
}

func (p *pipeEnd) Send(ctx context.Context, msg Message) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.peer.in <- msg:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeEnd) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.done:
		return Message{}, ErrClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
