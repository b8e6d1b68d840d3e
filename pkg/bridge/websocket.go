package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	// Clients are local tools, not browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsTransport struct {
	conn      *websocket.Conn
	writeLock sync.Mutex
	msgs      chan Message
	done      chan struct{}
	once      sync.Once
}

// NewWebsocketTransport wraps an open websocket connection. Messages are JSON
// text frames.
func NewWebsocketTransport(conn *websocket.Conn) Transport {
	t := &wsTransport{
		conn: conn,
		msgs: make(chan Message),
		done: make(chan struct{}),
	}
	go t.listen()
	return t
}

// Dial opens a websocket transport to the given ws:// url.
func Dial(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewWebsocketTransport(conn), nil
}

// Handler upgrades incoming http requests to websocket transports and hands
// them to onConnect, which owns them from then on.
func Handler(onConnect func(Transport)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("bridge: failed to upgrade connection")
			return
		}
		onConnect(NewWebsocketTransport(conn))
	})
}

func (t *wsTransport) listen() {
	defer t.Close()

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
			) {
				log.WithError(err).Debug("bridge: connection dropped")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Debug("bridge: skipping malformed message")
			continue
		}
		select {
		case t.msgs <- msg:
		case <-t.done:
			return
		}
	}
}

func (t *wsTransport) Send(ctx context.Context, msg Message) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	t.writeLock.Lock()
	defer t.writeLock.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetWriteDeadline(deadline)
		defer t.conn.SetWriteDeadline(time.Time{})
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.msgs:
		return msg, nil
	case <-t.done:
		return Message{}, ErrClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (t *wsTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		t.writeLock.Lock()
		t.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		t.writeLock.Unlock()
		err = t.conn.Close()
	})
	return err
}
