package internalhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mkravets/meetplanner/internal/app"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

type Server struct {
	srv  *http.Server
	addr string
}

func NewServer(config Config, planner *app.App) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: newRouter(planner)},
	}
}

func newRouter(planner *app.App) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(loggingMiddleware(), gin.Recovery())

	h := &handlers{planner: planner}
	router.GET("/healthz", h.health)
	router.POST("/meetings", h.create)
	router.GET("/meetings", h.list)
	router.GET("/meetings/:id", h.get)
	router.PATCH("/meetings/:id", h.update)
	router.DELETE("/meetings/:id", h.remove)
	return router
}

func (s *Server) Start(_ context.Context) error {
	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
