package server

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/budgetclean/internal/config"
	"github.com/tensorplex-labs/budgetclean/internal/problem"
)

const (
	HealthRoute = "/health"
	CleanRoute  = "/clean"
)

// Runner solves one cleaning problem.
type Runner interface {
	Solve(ctx context.Context, p *problem.Problem) (*problem.Report, error)
}

// Server is the HTTP front of the cleaning engine.
type Server struct {
	App    *fiber.App
	config *config.ServerEnvConfig
	runner Runner
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// Handler is a typed route handler.
type Handler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)

// HealthResponse is returned by the health route.
type HealthResponse struct {
	Status string `json:"status"`
}

func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}
