package http

import (
	"github.com/rs/zerolog"
	"github.com/runease-api/internal/application/auth"
	"github.com/runease-api/internal/application/statistics"
	"github.com/runease-api/internal/application/user"
	"github.com/runease-api/internal/application/verification"
	appmiddleware "github.com/runease-api/internal/transport/http/middleware"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Verification verification.Service
	Users        user.Service
	Auth         auth.Service
	Tokens       appmiddleware.TokenVerifier
	Statistics   statistics.Service
	Logger       zerolog.Logger
}
