// Package devgateway serves a deterministic stand-in for the content-generation API
// so the wizard can run offline and tests can exercise real HTTP round trips.
package devgateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// Logger receives one line per request.
type Logger interface {
	Printf(format string, args ...any)
}

// Server wraps the HTTP listener and the gin router.
type Server struct {
	settings Settings
	logger   Logger
	clock    func() time.Time
	store    *store

	failMu   sync.RWMutex
	failures map[string]int
	delays   map[string]time.Duration

	mu        sync.RWMutex
	engine    *gin.Engine
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFailure makes every request to path answer with status and an error body.
func WithFailure(path string, status int) Option {
	return func(s *Server) {
		s.failures[path] = status
	}
}

// WithDelay holds every request to path for d before handling it.
func WithDelay(path string, d time.Duration) Option {
	return func(s *Server) {
		s.delays[path] = d
	}
}

// NewServer prepares an offline gateway using the provided settings.
func NewServer(settings Settings, opts ...Option) *Server {
	settings.normalize()
	s := &Server{
		settings: settings,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		store:    newStore(),
		failures: map[string]int{},
		delays:   map[string]time.Duration{},
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.engine = s.routes()
	return s
}

// SetFailure changes failure injection on a running server. Status 0 clears it.
func (s *Server) SetFailure(path string, status int) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("devgateway: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("devgateway: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("devgateway: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("devgateway: serve error: %v", err)
		}
	}()
	s.logger.Printf("devgateway: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.startTime).Seconds())
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = s.settings.MaxBodyBytes
	router.Use(gin.Recovery(), s.requestLog(), s.inject())

	router.GET("/health", s.handleHealth)
	router.GET("/languages", s.handleLanguages)
	router.POST("/upload", s.handleUpload)
	router.DELETE("/course/:courseId", s.handleDeleteCourse)
	router.POST("/lesson-content", s.handleLessonContent)
	router.POST("/generate-module-quiz", s.handleModuleQuiz)
	router.POST("/translate-lesson", s.handleTranslateLesson)
	router.POST("/lesson-speech", s.handleLessonSpeech)
	router.POST("/modify-content", s.handleModifyContent)
	router.POST("/delete-content", s.handleDeleteContent)
	router.POST("/generate-pptx", s.handleExport(exportPPTX))
	router.POST("/generate-pdf", s.handleExport(exportPDF))
	router.GET("/downloads/:name", s.handleDownload)
	router.POST("/generate-course-overview", s.handleVideo)
	router.POST("/generate-lesson-video", s.handleVideo)
	router.POST("/generate-video", s.handleVideo)
	return router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Printf("devgateway: %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		s.failMu.RLock()
		status, failing := s.failures[path]
		delay := s.delays[path]
		s.failMu.RUnlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if failing {
			c.AbortWithStatusJSON(status, gin.H{"error": fmt.Sprintf("injected failure for %s", path)})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         string(s.Status()),
		"uptime_seconds": s.uptimeSeconds(),
		"courses":        s.store.courseCount(),
	})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
