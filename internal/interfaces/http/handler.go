package httpinterface

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/wallet"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/stats"
)

// callParams is the union of the arguments of the wallet methods.
type callParams struct {
	Amount      *string            `json:"amount"`
	Paginate    *explorer.Paginate `json:"paginate"`
	Tx          string             `json:"tx"`
	PartialSign bool               `json:"partialSign"`
	Address     string             `json:"address"`
	Payload     string             `json:"payload"`
}

type methodFunc func(
	ctx context.Context, api *wallet.WalletAPI, p callParams,
) (interface{}, error)

func wrap[T any](fn func(context.Context, *wallet.WalletAPI, callParams) (T, error)) methodFunc {
	return func(ctx context.Context, api *wallet.WalletAPI, p callParams) (interface{}, error) {
		return fn(ctx, api, p)
	}
}

var methods = map[string]methodFunc{
	"getNetworkId": wrap(func(ctx context.Context, api *wallet.WalletAPI, _ callParams) (uint8, error) {
		return api.GetNetworkID(ctx)
	}),
	"getExtensions": wrap(func(ctx context.Context, api *wallet.WalletAPI, _ callParams) ([]wallet.Extension, error) {
		return api.GetExtensions(ctx)
	}),
	"getUtxos": wrap(func(ctx context.Context, api *wallet.WalletAPI, p callParams) ([]string, error) {
		return api.GetUtxos(ctx, p.Amount, p.Paginate)
	}),
	"getBalance": wrap(func(ctx context.Context, api *wallet.WalletAPI, _ callParams) (string, error) {
		return api.GetBalance(ctx)
	}),
	"getCollateral": wrap(func(ctx context.Context, api *wallet.WalletAPI, p callParams) ([]string, error) {
		return api.GetCollateral(ctx, p.Amount)
	}),
	"getChangeAddress": wrap(func(ctx context.Context, api *wallet.WalletAPI, _ callParams) (string, error) {
		return api.GetChangeAddress(ctx)
	}),
	"getUsedAddresses": wrap(func(ctx context.Context, api *wallet.WalletAPI, p callParams) ([]string, error) {
		return api.GetUsedAddresses(ctx, p.Paginate)
	}),
	"getUnusedAddresses": wrap(func(ctx context.Context, api *wallet.WalletAPI, _ callParams) ([]string, error) {
		return api.GetUnusedAddresses(ctx)
	}),
	"getRewardAddresses": wrap(func(ctx context.Context, api *wallet.WalletAPI, _ callParams) ([]string, error) {
		return api.GetRewardAddresses(ctx)
	}),
	"signTx": wrap(func(ctx context.Context, api *wallet.WalletAPI, p callParams) (string, error) {
		return api.SignTx(ctx, p.Tx, p.PartialSign)
	}),
	"signData": wrap(func(ctx context.Context, api *wallet.WalletAPI, p callParams) (interface{}, error) {
		return api.SignData(ctx, p.Address, p.Payload)
	}),
	"submitTx": wrap(func(ctx context.Context, api *wallet.WalletAPI, p callParams) (string, error) {
		return api.SubmitTx(ctx, p.Tx)
	}),
}

var statusByKind = map[domain.ErrorKind]int{
	domain.ErrorKindInvalidRequest:  http.StatusBadRequest,
	domain.ErrorKindInternalError:   http.StatusInternalServerError,
	domain.ErrorKindRefused:         http.StatusForbidden,
	domain.ErrorKindAccountChange:   http.StatusConflict,
	domain.ErrorKindProofGeneration: http.StatusUnprocessableEntity,
	domain.ErrorKindUserDeclined:    http.StatusForbidden,
}

// DefaultSessionIdleTimeout is how long a session can go unused before it's
// evicted.
const DefaultSessionIdleTimeout = time.Hour

type session struct {
	api      *wallet.WalletAPI
	lastUsed time.Time
}

type walletHandler struct {
	entrypoint  *wallet.Entrypoint
	metrics     *stats.WalletMetrics
	idleTimeout time.Duration

	lock     sync.Mutex
	sessions map[string]*session
}

func newWalletHandler(
	entrypoint *wallet.Entrypoint, metrics *stats.WalletMetrics,
	idleTimeout time.Duration,
) *walletHandler {
	if idleTimeout <= 0 {
		idleTimeout = DefaultSessionIdleTimeout
	}
	return &walletHandler{
		entrypoint:  entrypoint,
		metrics:     metrics,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*session),
	}
}

// evictSessions runs evictIdleSessions every half idle timeout until ctx is
// done.
func (h *walletHandler) evictSessions(ctx context.Context) {
	ticker := time.NewTicker(h.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.evictIdleSessions(now)
		}
	}
}

func (h *walletHandler) evictIdleSessions(now time.Time) {
	h.lock.Lock()
	defer h.lock.Unlock()

	evicted := 0
	for id, s := range h.sessions {
		if now.Sub(s.lastUsed) > h.idleTimeout {
			delete(h.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debugf("evicted %d idle sessions", evicted)
		h.updateSessionsGauge()
	}
}

// updateSessionsGauge must be called with the lock held.
func (h *walletHandler) updateSessionsGauge() {
	if h.metrics != nil {
		h.metrics.Sessions.Set(float64(len(h.sessions)))
	}
}

func respondError(c *gin.Context, err error) {
	apiErr := domain.ToAPIError(err)
	status, ok := statusByKind[apiErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, apiErr)
}

func (h *walletHandler) info(c *gin.Context) {
	c.JSON(http.StatusOK, h.entrypoint.Info())
}

func (h *walletHandler) isEnabled(c *gin.Context) {
	enabled, err := h.entrypoint.IsEnabled(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

func (h *walletHandler) enable(c *gin.Context) {
	api, err := h.entrypoint.Enable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	id := uuid.New().String()
	h.lock.Lock()
	h.sessions[id] = &session{api: api, lastUsed: time.Now()}
	h.updateSessionsGauge()
	h.lock.Unlock()

	log.WithField("session", id).Debug("session opened")
	c.JSON(http.StatusOK, gin.H{
		"sessionId": id,
		"networkId": api.Network().ID,
	})
}

// session returns the api of the session and marks it as used. Sessions idle
// for longer than the timeout are dropped.
func (h *walletHandler) session(id string) (*wallet.WalletAPI, bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	s, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if now.Sub(s.lastUsed) > h.idleTimeout {
		delete(h.sessions, id)
		h.updateSessionsGauge()
		return nil, false
	}
	s.lastUsed = now
	return s.api, true
}

func (h *walletHandler) closeSession(c *gin.Context) {
	id := c.Param("id")
	h.lock.Lock()
	delete(h.sessions, id)
	h.updateSessionsGauge()
	h.lock.Unlock()
	c.Status(http.StatusNoContent)
}

func (h *walletHandler) call(c *gin.Context) {
	api, ok := h.session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrorKindInvalidRequest, "unknown session %s", c.Param("id"),
		))
		return
	}
	method, ok := methods[c.Param("method")]
	if !ok {
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrorKindInvalidRequest, "unknown method %s", c.Param("method"),
		))
		return
	}

	// An empty body, sized or chunked, means no params.
	var params callParams
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, domain.NewAPIError(
			domain.ErrorKindInvalidRequest, "invalid params: %s", err,
		))
		return
	}

	res, err := method(c.Request.Context(), api, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}
