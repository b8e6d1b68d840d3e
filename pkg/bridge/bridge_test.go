package bridge_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/infrastructure/storage/kv/inmemory"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/bridge"
)

const channelID = "cdw.storage"

func newPipeStore(t *testing.T, store bridge.Store, logger *log.Logger) *bridge.RemoteStore {
	clientEnd, serverEnd := bridge.Pipe()
	server := bridge.NewStoreServer(channelID, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		server.Serve(ctx, serverEnd)
		close(done)
	}()

	client := bridge.NewClient(channelID, clientEnd)
	t.Cleanup(func() {
		client.Close()
		cancel()
		<-done
	})
	return bridge.NewRemoteStore(client)
}

func TestRemoteStore(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	remote := newPipeStore(t, store, nil)

	value, err := remote.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, remote.Set(ctx, "mainnet/accounts", []byte(`{"1":{}}`)))
	value, err = remote.Get(ctx, "mainnet/accounts")
	require.NoError(t, err)
	require.Equal(t, `{"1":{}}`, string(value))

	local, err := store.Get(ctx, "mainnet/accounts")
	require.NoError(t, err)
	require.Equal(t, value, local)
}

func TestRemoteStoreConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	remote := newPipeStore(t, store, nil)

	wg := &sync.WaitGroup{}
	errs := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := []byte(fmt.Sprintf("v%d", i))
			if err := remote.Set(ctx, "key", v); err != nil {
				errs <- err
				return
			}
			if _, err := remote.Get(ctx, "key"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	value, err := remote.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(value), "v"))
}

func TestServerIgnoresOtherChannels(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	clientEnd, serverEnd := bridge.Pipe()
	defer clientEnd.Close()
	server := bridge.NewStoreServer(channelID, inmemory.NewStore(), nil)
	go server.Serve(ctx, serverEnd)

	require.NoError(t, clientEnd.Send(ctx, bridge.Message{
		ChannelID: "other", Type: bridge.TypeRequest, ID: "1", Method: bridge.MethodStoreGet, Key: "k",
	}))
	require.NoError(t, clientEnd.Send(ctx, bridge.Message{
		ChannelID: channelID, Type: bridge.TypeResponse, ID: "2", Method: bridge.MethodStoreGet, Key: "k",
	}))
	require.NoError(t, clientEnd.Send(ctx, bridge.Message{
		ChannelID: channelID, Type: bridge.TypeRequest, ID: "3", Method: bridge.MethodStoreGet, Key: "k",
	}))

	resp, err := clientEnd.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, "3", resp.ID)
	require.Equal(t, "k", resp.Key)
	require.Equal(t, bridge.TypeResponse, resp.Type)
	require.Equal(t, "null", string(resp.Value))
}

func TestUnknownMethod(t *testing.T) {
	clientEnd, serverEnd := bridge.Pipe()
	server := bridge.NewServer(channelID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx, serverEnd)

	client := bridge.NewClient(channelID, clientEnd)
	defer client.Close()

	_, err := client.Call(ctx, bridge.Method("store.delete"), "k", nil)
	require.Error(t, err)
	var remoteErr *bridge.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Contains(t, remoteErr.Msg, "unknown method")
}

func TestCallCancel(t *testing.T) {
	clientEnd, serverEnd := bridge.Pipe()
	defer serverEnd.Close()

	// Nobody serves serverEnd, so the call can only end by cancellation.
	client := bridge.NewClient(channelID, clientEnd)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Call(ctx, bridge.MethodStoreGet, "k", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, client.Pending())

	// A late reply is dropped without effect.
	req, err := serverEnd.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, serverEnd.Send(context.Background(), bridge.Message{
		ChannelID: channelID, Type: bridge.TypeResponse, ID: req.ID, Key: req.Key,
	}))
	require.Zero(t, client.Pending())
}

func TestCallAfterClose(t *testing.T) {
	clientEnd, _ := bridge.Pipe()
	client := bridge.NewClient(channelID, clientEnd)
	require.NoError(t, client.Close())

	_, err := client.Call(context.Background(), bridge.MethodStoreGet, "k", nil)
	require.ErrorIs(t, err, bridge.ErrClosed)
}

func TestLogHook(t *testing.T) {
	serverLogger, hook := test.NewNullLogger()
	clientEnd, serverEnd := bridge.Pipe()
	server := bridge.NewStoreServer(channelID, inmemory.NewStore(), serverLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx, serverEnd)
	client := bridge.NewClient(channelID, clientEnd)
	defer client.Close()

	logger := log.New()
	logger.Out = &strings.Builder{}
	logger.AddHook(bridge.NewLogHook(client, log.InfoLevel))

	logger.WithField("method", "getBalance").Info("call")
	logger.Debug("not forwarded")

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	require.Equal(t, "call", entry.Message)
	require.Equal(t, log.InfoLevel, entry.Level)
	require.Equal(t, "getBalance", entry.Data["method"])
	require.Equal(t, true, entry.Data["remote"])
}

func TestWebsocketTransport(t *testing.T) {
	store := inmemory.NewStore()
	server := bridge.NewStoreServer(channelID, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(bridge.Handler(func(tr bridge.Transport) {
		go server.Serve(ctx, tr)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	tr, err := bridge.Dial(ctx, url)
	require.NoError(t, err)

	client := bridge.NewClient(channelID, tr)
	defer client.Close()
	remote := bridge.NewRemoteStore(client)

	require.NoError(t, remote.Set(ctx, "activeNetwork", []byte(`"preview"`)))
	value, err := remote.Get(ctx, "activeNetwork")
	require.NoError(t, err)
	require.Equal(t, `"preview"`, string(value))

	raw, err := json.Marshal([]byte(`"preview"`))
	require.NoError(t, err)
	got, err := client.Call(ctx, bridge.MethodStoreGet, "activeNetwork", nil)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(got))
}

func TestOnRequest(t *testing.T) {
	clientEnd, serverEnd := bridge.Pipe()
	server := bridge.NewStoreServer(channelID, inmemory.NewStore(), nil)

	lock := &sync.Mutex{}
	served := make([]bridge.Method, 0)
	server.OnRequest(func(m bridge.Method) {
		lock.Lock()
		defer lock.Unlock()
		served = append(served, m)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx, serverEnd)
	client := bridge.NewClient(channelID, clientEnd)
	defer client.Close()

	remote := bridge.NewRemoteStore(client)
	require.NoError(t, remote.Set(ctx, "k", []byte("v")))
	_, err := remote.Get(ctx, "k")
	require.NoError(t, err)

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, []bridge.Method{bridge.MethodStoreSet, bridge.MethodStoreGet}, served)
}
