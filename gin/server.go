// Package gin provides the HTTP boundary over the search service: the
// /search and /clear-collections endpoints consumed by the UI.
package gin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	websearch "github.com/Mati018/website-search"
)

// Display truncation limits, applied at the boundary only; stored chunks
// keep their full text.
const (
	maxContentDisplayChars = 300
	maxSnippetDisplayChars = 500
)

// ShutdownTimeout is how long Close waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Website string `json:"website" binding:"required"`
	Query   string `json:"query" binding:"required"`
}

// Server serves the HTTP API. The core never sees HTTP types; this
// layer validates, delegates to the SearchService, and shapes responses.
type Server struct {
	server *http.Server
	ln     net.Listener

	Addr string

	// AllowOrigin, when set, enables CORS for the given origin so a
	// browser UI can call the API directly.
	AllowOrigin string

	Service websearch.SearchService
	Logger  *slog.Logger
}

// NewServer creates a Server around the given search service.
func NewServer(service websearch.SearchService) *Server {
	return &Server{
		Service: service,
		Logger:  slog.Default(),
	}
}

// Open begins listening on Addr. Returns once the listener is bound;
// requests are served on a background goroutine.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if s.AllowOrigin != "" {
		router.Use(s.corsMiddleware())
	}
	router.POST("/search", s.handleSearch)
	router.DELETE("/clear-collections", s.handleClearCollections)

	s.server = &http.Server{Handler: router}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http server stopped", "error", err)
		}
	}()

	s.Logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// URL returns the base URL the server is reachable at. Useful in tests
// where Addr was ":0".
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// handleSearch implements POST /search.
func (s *Server) handleSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "website URL and query are required"})
		return
	}

	resp, err := s.Service.Search(c.Request.Context(), req.Website, req.Query)
	if err != nil {
		s.Logger.Error("search failed", "website", req.Website, "error", err)
		c.JSON(statusFromError(err), gin.H{"detail": websearch.ErrorMessage(err)})
		return
	}

	for i := range resp.Results {
		resp.Results[i].Content = truncate(resp.Results[i].Content, maxContentDisplayChars)
		resp.Results[i].HTMLSnippet = truncate(resp.Results[i].HTMLSnippet, maxSnippetDisplayChars)
	}
	if resp.Results == nil {
		resp.Results = []websearch.SearchResult{}
	}
	c.JSON(http.StatusOK, resp)
}

// handleClearCollections implements DELETE /clear-collections.
func (s *Server) handleClearCollections(c *gin.Context) {
	deleted, err := s.Service.ClearAll(c.Request.Context())
	if err != nil {
		s.Logger.Error("clear collections failed", "error", err)
		c.JSON(statusFromError(err), gin.H{"detail": websearch.ErrorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": formatDeleted(deleted)})
}

// corsMiddleware allows the configured browser origin to call the API.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.AllowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// statusFromError maps application error codes to HTTP status codes.
func statusFromError(err error) int {
	switch websearch.ErrorCode(err) {
	case websearch.EINVALID:
		return http.StatusBadRequest
	case websearch.ENOTFOUND:
		return http.StatusNotFound
	case websearch.EUNSUPPORTED:
		return http.StatusUnsupportedMediaType
	case websearch.ETIMEOUT:
		return http.StatusGatewayTimeout
	case websearch.EUNAVAILABLE, websearch.EABORTED:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// truncate shortens s to at most max bytes, backing the cut up to a rune
// boundary so multi-byte characters are never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}

func formatDeleted(n int) string {
	if n == 1 {
		return "Deleted 1 collection"
	}
	return fmt.Sprintf("Deleted %d collections", n)
}
