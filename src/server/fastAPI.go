package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stock-watch/src/helpers"
	"stock-watch/src/interfaces"
	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// Header carrying the caller identity. The mobile app sets it after
// login; absent means the shared anonymous user.
const userIDHeader = "X-User-ID"
const anonymousUser = "anonymous"

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config      *models.MConfig
	Logger      *logger.Logger
	Coordinator interfaces.ICacheCoordinator
	Watchlist   interfaces.IWatchlistGuard
	Fast        interfaces.IFastStore
	Durable     interfaces.IDurableStore
	Limiter     interfaces.IRateLimiter
	engine      *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MQuotePush
	register   chan *Client
	unregister chan *Client
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(
	cfg *models.MConfig,
	coord interfaces.ICacheCoordinator,
	guard interfaces.IWatchlistGuard,
	fast interfaces.IFastStore,
	durable interfaces.IDurableStore,
	limiter interfaces.IRateLimiter,
	log *logger.Logger,
) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:      cfg,
		Logger:      log,
		Coordinator: coord,
		Watchlist:   guard,
		Fast:        fast,
		Durable:     durable,
		Limiter:     limiter,
		engine:      gin.Default(),
		clients:     make(map[*Client]struct{}),
		// Buffered so a slow hub never blocks the refresher
		broadcast:  make(chan *models.MQuotePush, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/stock/:symbol", s.getStock)
	s.engine.GET("/api/stock/:symbol/chart", s.getChart)
	s.engine.GET("/api/search/:query", s.getSearch)
	s.engine.GET("/api/market/overview", s.getOverview)

	s.engine.GET("/api/watchlist", s.getWatchlist)
	s.engine.POST("/api/watchlist", s.postWatchlist)
	s.engine.DELETE("/api/watchlist/:symbol", s.deleteWatchlist)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------

// Engine exposes the router for httptest.
func (s *APIServer) Engine() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	fastOK := s.Fast.Ping() == nil
	durableOK := s.Durable.Ping() == nil

	status := "ok"
	if !fastOK || !durableOK {
		status = "degraded"
	}

	c.JSON(200, gin.H{
		"status":           status,
		"fast_store":       fastOK,
		"durable_store":    durableOK,
		"budget_remaining": s.Limiter.Remaining(),
		"connections":      len(s.clients),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStock(c *gin.Context) {
	quote, origin, err := s.Coordinator.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"quote":  quote,
		"origin": origin,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getChart(c *gin.Context) {
	series, origin, err := s.Coordinator.GetChart(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"chart":  series,
		"origin": origin,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSearch(c *gin.Context) {
	set, origin, err := s.Coordinator.Search(c.Request.Context(), c.Param("query"))
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"results": set.Results,
		"origin":  origin,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getOverview(c *gin.Context) {
	overview, origin, err := s.Coordinator.GetMarketOverview(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"overview": overview,
		"origin":   origin,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getWatchlist(c *gin.Context) {
	entries, err := s.Watchlist.List(s.userID(c))
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"watchlist": entries,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postWatchlist(c *gin.Context) {
	var body struct {
		Symbol string `json:"symbol" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "symbol is required"})
		return
	}

	entry, err := s.Watchlist.Add(s.userID(c), body.Symbol)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(201, gin.H{
		"entry": entry,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) deleteWatchlist(c *gin.Context) {
	if err := s.Watchlist.Remove(s.userID(c), c.Param("symbol")); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"removed": true,
	})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *APIServer) userID(c *gin.Context) string {
	if id := c.GetHeader(userIDHeader); id != "" {
		return id
	}
	return anonymousUser
}

// -----------------------------------------------------------------------------

// renderError maps the typed domain errors onto HTTP statuses.
func (s *APIServer) renderError(c *gin.Context, err error) {
	switch {
	case helpers.IsSymbolNotFound(err):
		c.JSON(404, gin.H{"error": err.Error()})
	case helpers.IsAlreadyWatched(err), helpers.IsWatchlistFull(err):
		c.JSON(409, gin.H{"error": err.Error()})
	case helpers.IsProviderThrottled(err), helpers.IsUpstreamUnavailable(err):
		c.JSON(503, gin.H{"error": err.Error()})
	case helpers.IsNetworkError(err), helpers.IsMalformedResponse(err):
		c.JSON(502, gin.H{"error": err.Error()})
	default:
		c.JSON(400, gin.H{"error": err.Error()})
	}
}
