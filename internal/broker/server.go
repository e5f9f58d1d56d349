package broker

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hackmate/client/internal/infrastructure/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dev broker, any origin
	},
}

// Options configures the dev broker.
type Options struct {
	// Tokens maps bearer tokens to identities. Connections presenting any
	// other token are rejected at the handshake.
	Tokens map[string]Identity
	Logger *logging.Logger
}

// Server is the development message broker: a single-process stand-in for
// the production backend, speaking the same frame protocol over /ws and
// serving the chat-history REST surface.
type Server struct {
	hub    *Hub
	log    *logging.Logger
	router *gin.Engine

	mu     sync.RWMutex
	tokens map[string]Identity

	registry    *prometheus.Registry
	connections prometheus.Gauge
	rejects     prometheus.Counter
}

// NewServer creates a broker with its routes registered.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		hub:      NewHub(),
		log:      log.Named("broker"),
		tokens:   make(map[string]Identity),
		registry: registry,
		connections: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "hackmate_broker_connections",
			Help: "Open websocket connections",
		}),
		rejects: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "hackmate_broker_auth_rejects_total",
			Help: "Handshakes rejected for bad credentials",
		}),
	}
	for token, identity := range opts.Tokens {
		s.tokens[token] = identity
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORS(DefaultCORSConfig()))
	router.Use(RateLimit(DefaultRateLimitConfig()))

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/ws", s.handleWS)
	router.GET("/api/chat/teams/:id/messages/recent", s.handleRecent)

	s.router = router
	return s
}

// Handler exposes the router for httptest and for serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AddToken registers a credential at runtime.
func (s *Server) AddToken(token string, identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = identity
}

// Hub exposes the fan-out hub for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) authenticate(r *http.Request) (Identity, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return Identity{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.tokens[token]
	return identity, ok
}

func (s *Server) handleWS(c *gin.Context) {
	identity, ok := s.authenticate(c.Request)
	if !ok {
		s.rejects.Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	s.connections.Inc()
	defer s.connections.Dec()

	sess := newSession(s, conn, identity)
	s.log.Info("connection opened", zap.String("user_id", identity.UserID))
	sess.run()
	s.log.Info("connection closed", zap.String("user_id", identity.UserID))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRecent(c *gin.Context) {
	if _, ok := s.authenticate(c.Request); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, s.hub.Recent(c.Param("id")))
}
