package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lazylions/lazy-leaderboard/internal/cache"
	"github.com/lazylions/lazy-leaderboard/internal/leaderboard"
	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/internal/refresh"
	"github.com/lazylions/lazy-leaderboard/pkg/goplus"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// NameStore 名称缓存读取
type NameStore interface {
	Resolve(ctx context.Context, addr models.Address) (cache.NameResult, error)
	ResolveBatch(ctx context.Context, addrs []string) map[string]cache.NameResult
}

type LeaderboardService interface {
	Leaderboard(ctx context.Context, q leaderboard.Query) (*leaderboard.Result, error)
}

type Refresher interface {
	RunNow(ctx context.Context) (refresh.Summary, error)
}

// HoldersProxy 原样转发 top-holders 响应
type HoldersProxy interface {
	TopHoldersRaw(ctx context.Context, page, limit int) ([]byte, error)
}

type Deps struct {
	Names       NameStore
	Leaderboard LeaderboardService
	Refresher   Refresher
	Holders     HoldersProxy
}

type Server struct {
	app  *fiber.App
	addr string
	deps Deps
}

func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		addr: addr,
		deps: deps,
		app: fiber.New(fiber.Config{
			AppName:               "Lazy Leaderboard API",
			ErrorHandler:          ErrorHandler,
			DisableStartupMessage: true,
			ReadTimeout:           30 * time.Second,
		}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use("/api/", func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		c.Append("Server-Timing", fmt.Sprintf("app;dur=%v", time.Since(start).String()))
		return err
	})

	s.app.Post("/api/ens-lookup-batch", s.lookupBatch)
	s.app.Get("/api/ens-lookup", s.lookup)
	s.app.Get("/api/leaderboard/:source", s.getLeaderboard)
	s.app.Get("/api/refresh-ens", s.refreshNames)
	s.app.Get("/api/chainbase-token-holders", s.tokenHolders)
}

// App 测试用
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() {
	goplus.Go(func() {
		logger.Info().Str("addr", s.addr).Msg("api server starting")
		if err := s.app.Listen(s.addr); err != nil {
			logger.Error().Err(err).Msg("api server error")
		}
	})
}

func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
