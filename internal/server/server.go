// Package server exposes the cleaning engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/budgetclean/internal/config"
	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
	"github.com/tensorplex-labs/budgetclean/internal/problem"
	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// New creates the server and registers its routes.
func New(cfg *config.ServerEnvConfig, runner Runner) *Server {
	log.Info().
		Any("serverConfig", cfg).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:      false,
		ErrorHandler: fiberErrHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		BodyLimit:    cfg.BodySizeLimit,
	})

	app.Use(recover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(ZstdMiddleware([]string{HealthRoute}))

	s := &Server{
		App:    app,
		config: cfg,
		runner: runner,
	}

	app.Get(HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(createResponse(HealthResponse{Status: "ok"}, nil))
	})
	Route(s, CleanRoute, s.handleClean)
	return s
}

func (s *Server) handleClean(c *fiber.Ctx, p problem.Problem) (*problem.Report, error) {
	log.Info().
		Str("problem_id", p.ID).
		Int("repairs", len(p.Repairs)).
		Int("points", len(p.Validation)).
		Msg("clean request received")

	report, err := s.runner.Solve(c.UserContext(), &p)
	if err != nil {
		if isBadRequest(err) {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return nil, err
	}
	return report, nil
}

// isBadRequest reports errors caused by the submitted problem itself.
func isBadRequest(err error) bool {
	for _, target := range []error{
		problem.ErrInvalidProblem,
		space.ErrShapeMismatch,
		space.ErrNonFinite,
		space.ErrNonBinaryLabels,
		space.ErrGroundTruthMissing,
		space.ErrNoRepairs,
		cpclean.ErrInvalidK,
		cpclean.ErrUnknownMethod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	// Status code defaults to 500
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// Route registers a typed POST handler at path. Request bodies are parsed as
// JSON and responses wrapped in StdResponse.
func Route[Req, Resp any](s *Server, path string, handler Handler[Req, Resp]) {
	s.App.Post(path, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().
				Err(err).
				Str("route", path).
				Msg("Failed to parse request body")
			return c.Status(fiber.StatusBadRequest).
				JSON(createResponse(map[string]any{}, err))
		}

		resp, err := handler(c, req)
		if err != nil {
			log.Error().
				Err(err).
				Str("route", path).
				Msg("Handler returned error")
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			var zero Resp
			return c.Status(code).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

// Start listens on the configured address until the listener fails or
// ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.App.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Str("address", addr).Msg("Shutting down server")
		return s.App.Shutdown()
	}
}
