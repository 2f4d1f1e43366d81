// Package server exposes an annotator.Controller over a small JSON API so a
// browser canvas can drive the same session the TUI does.
package server

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menta2k/image-labeler/pkg/annotator"
	"github.com/menta2k/image-labeler/pkg/normalize"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/session"
	"github.com/menta2k/image-labeler/pkg/types"
)

// RequestIDHeader carries the per-request id
const RequestIDHeader = "X-Request-ID"

// Server serializes HTTP requests onto one Controller
type Server struct {
	mu    sync.Mutex
	ctl   *annotator.Controller
	notes *annotator.Recorder
	proc  *processing.Processor
	log   *zap.Logger

	engine *gin.Engine
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Server. notes must be the Notifier the controller was built with.
func New(ctl *annotator.Controller, notes *annotator.Recorder, opts ...Option) *Server {
	s := &Server{
		ctl:   ctl,
		notes: notes,
		proc:  processing.NewProcessor(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID())

	api := r.Group("/api")
	api.GET("/session", s.getSession)
	api.POST("/session/open", s.openFolder)
	api.POST("/session/next", s.step(s.ctl.Next))
	api.POST("/session/prev", s.step(s.ctl.Prev))
	api.GET("/session/image", s.getImage)
	api.POST("/annotations", s.annotate)
	api.GET("/labels/:image", s.getLabels)

	s.engine = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("http server stopped")
		return nil
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(RequestIDHeader, id)
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

type sessionView struct {
	Folder  string           `json:"folder"`
	Pending []string         `json:"pending"`
	Index   int              `json:"index"`
	Current *types.ImageInfo `json:"current"`
	State   string           `json:"state"`
}

type openRequest struct {
	Folder string `json:"folder" binding:"required"`
}

type annotateRequest struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Class string  `json:"class"`
}

func (s *Server) view() sessionView {
	v := sessionView{
		Folder:  s.ctl.Folder(),
		Pending: s.ctl.Pending(),
		Index:   s.ctl.Index(),
		State:   s.ctl.State().String(),
	}
	if info, ok := s.ctl.Current(); ok {
		v.Current = &info
	}
	return v
}

func (s *Server) getSession(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"data": s.view(), "notices": s.notes.Drain()})
}

func (s *Server) openFolder(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctl.Open(req.Folder); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.view(), "notices": s.notes.Drain()})
}

func (s *Server) step(move func() (session.Move, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		m, err := move()
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": s.view(), "move": m, "notices": s.notes.Drain()})
	}
}

func (s *Server) getImage(c *gin.Context) {
	s.mu.Lock()
	img := s.ctl.Image()
	s.mu.Unlock()
	if img == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no image loaded"})
		return
	}

	var buf bytes.Buffer
	if err := s.proc.Encode(&buf, img, "png"); err != nil {
		s.log.Error("image encode failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) annotate(c *gin.Context) {
	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rect := types.Rect{
		Anchor:  types.Point{X: req.X0, Y: req.Y0},
		Current: types.Point{X: req.X1, Y: req.Y1},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.ctl.Annotate(rect, req.Class)
	if err != nil {
		s.fail(c, err)
		return
	}
	res.Box = round(res.Box)
	c.JSON(http.StatusCreated, gin.H{"data": res, "session": s.view(), "notices": s.notes.Drain()})
}

func (s *Server) getLabels(c *gin.Context) {
	name := c.Param("image")
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image name"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	boxes, err := s.ctl.Store().ReadLabels(name)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]types.BoundingBox, len(boxes))
	for i, b := range boxes {
		out[i] = round(b)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// fail maps controller errors to status codes; callers hold s.mu
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case annotator.IsUserError(err):
		status = http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "notices": s.notes.Drain()})
}

func round(b types.BoundingBox) types.BoundingBox {
	b.XCenter = normalize.Round6(b.XCenter)
	b.YCenter = normalize.Round6(b.YCenter)
	b.Width = normalize.Round6(b.Width)
	b.Height = normalize.Round6(b.Height)
	return b
}
