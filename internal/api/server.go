package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sora/fundtracker/internal/api/middleware"
)

type Server struct {
	router *gin.Engine
}

func NewServer(
	taskAPI *TaskAPI,
	runAPI *RunAPI,
	marketAPI *MarketAPI,
	statusAPI *StatusAPI,
	logger *zap.Logger,
) *Server {
	s := &Server{}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.ErrorHandlingMiddleware(logger))
	s.router.Use(middleware.Cors())

	v1 := s.router.Group("/api/v1")
	taskAPI.Bind(v1)
	runAPI.Bind(v1)
	marketAPI.Bind(v1)
	statusAPI.Bind(v1)

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
