package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/wallet"
	interfaces "github.com/mlabs-haskell/cardano-dev-wallet/internal/interfaces"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/bridge"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/stats"
)

const shutdownTimeout = 5 * time.Second

type ServiceOpts struct {
	Port         int
	Entrypoint   *wallet.Entrypoint
	BridgeServer *bridge.Server
	Metrics      *stats.WalletMetrics
	Gatherer     prometheus.Gatherer
	// SessionIdleTimeout defaults to DefaultSessionIdleTimeout.
	SessionIdleTimeout time.Duration
}

func (o ServiceOpts) validate() error {
	if o.Port <= 0 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	if o.Entrypoint == nil {
		return fmt.Errorf("wallet entrypoint must not be null")
	}
	if o.BridgeServer == nil {
		return fmt.Errorf("bridge server must not be null")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
	ctx    context.Context
	cancel context.CancelFunc
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	router := NewRouter(ctx, opts)

	return &service{
		opts: opts,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("wallet interface stopped unexpectedly")
		}
	}()

	log.Infof("wallet interface is listening on %s", s.server.Addr)
	return nil
}

func (s *service) Stop() {
	// Bridge connections are hijacked and not tracked by Shutdown.
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop wallet interface")
	}
	log.Info("stopped wallet interface")
}

// NewRouter returns the handler of all HTTP routes. Bridge connections are
// served and idle wallet sessions evicted until ctx is done.
func NewRouter(ctx context.Context, opts ServiceOpts) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := newWalletHandler(opts.Entrypoint, opts.Metrics, opts.SessionIdleTimeout)
	go h.evictSessions(ctx)
	cardano := r.Group("/cardano")
	cardano.GET("", h.info)
	cardano.GET("/enabled", h.isEnabled)
	cardano.POST("/enable", h.enable)
	cardano.POST("/sessions/:id/:method", h.call)
	cardano.DELETE("/sessions/:id", h.closeSession)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	server := opts.BridgeServer
	r.GET("/bridge", gin.WrapH(bridge.Handler(func(t bridge.Transport) {
		go func() {
			defer t.Close()
			if err := server.Serve(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Debug("bridge connection closed")
			}
		}()
	})))

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("http request")
	}
}
