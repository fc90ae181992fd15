// Package adminapi exposes clan state to operators over HTTP.
package adminapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/udisondev/l2pledge/internal/clan"
)

// Registry is the part of the clan registry the API reads and drives.
type Registry interface {
	Clans() []*clan.Clan
	Clan(id int32) *clan.Clan
	ClanAllies(allyID int32) []*clan.Clan
	WarsOf(clanID int32) []*clan.War
	StartDissolution(ctx context.Context, clanID int32) (time.Time, error)
	CancelDissolution(ctx context.Context, clanID int32) error
	AllianceCheck(ctx context.Context) int
}

var _ Registry = (*clan.Registry)(nil)

// Parties reports live party and command channel counts.
type Parties interface {
	PartyCount() int
	ChannelCount() int
}

// Server serves the operator API.
type Server struct {
	app     *fiber.App
	reg     Registry
	parties Parties
}

// Option configures a Server.
type Option func(*Server)

// WithParties enables the /api/parties endpoint.
func WithParties(p Parties) Option {
	return func(s *Server) { s.parties = p }
}

// New builds the API over reg.
func New(reg Registry, opts ...Option) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "l2pledge-admin",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		reg: reg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Get("/clans", s.listClans)
	api.Get("/clans/:id", s.getClan)
	api.Get("/clans/:id/allies", s.clanAllies)
	api.Get("/clans/:id/wars", s.clanWars)
	api.Post("/clans/:id/dissolution", s.startDissolution)
	api.Delete("/clans/:id/dissolution", s.cancelDissolution)
	api.Post("/alliances/check", s.allianceCheck)
	if s.parties != nil {
		api.Get("/parties", s.partyStats)
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("admin api listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("admin api request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
