package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// HandlerFunc serves a single request and returns the response value.
type HandlerFunc func(ctx context.Context, key string, value json.RawMessage) (json.RawMessage, error)

// Server answers requests received on a transport. Requests are processed
// sequentially, in arrival order.
type Server struct {
	channelID string

	lock      sync.RWMutex
	handlers  map[Method]HandlerFunc
	onRequest func(Method)
}

func NewServer(channelID string) *Server {
	return &Server{
		channelID: channelID,
		handlers:  make(map[Method]HandlerFunc),
	}
}

// Handle registers fn for method, replacing any previous handler.
func (s *Server) Handle(method Method, fn HandlerFunc) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handlers[method] = fn
}

// OnRequest registers fn to be called for every request served, before its
// handler runs.
func (s *Server) OnRequest(fn func(Method)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.onRequest = fn
}

// Serve reads requests from t until the context is canceled or the transport
// is closed. Messages for other channels and responses are ignored.
func (s *Server) Serve(ctx context.Context, t Transport) error {
	for {
		msg, err := t.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
		if msg.ChannelID != s.channelID || msg.Type != TypeRequest {
			continue
		}

		resp := s.dispatch(ctx, msg)
		if err := t.Send(ctx, resp); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Message) Message {
	resp := Message{
		ChannelID: s.channelID,
		Type:      TypeResponse,
		ID:        req.ID,
		Method:    req.Method,
		Key:       req.Key,
	}

	s.lock.RLock()
	fn, ok := s.handlers[req.Method]
	onRequest := s.onRequest
	s.lock.RUnlock()
	if onRequest != nil {
		onRequest(req.Method)
	}
	if !ok {
		resp.Error = fmt.Sprintf("%s: %s", ErrUnknownMethod, req.Method)
		return resp
	}

	value, err := fn(ctx, req.Key, req.Value)
	if err != nil {
		log.WithError(err).WithField("method", req.Method).Debug("bridge: request failed")
		resp.Error = err.Error()
		return resp
	}
	resp.Value = value
	return resp
}
