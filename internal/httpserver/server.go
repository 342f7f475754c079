package httpserver

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/agent"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/bridge"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/config"
)

// Server bundles the HTTP router and dependencies.
type Server struct {
	Echo *echo.Echo
}

// New constructs the HTTP server with routes. One Session is created per
// connected /session socket; there is no cross-connection state.
func New(cfg config.Config, streamer agent.Streamer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/session", func(c echo.Context) error {
		return serveSession(c, cfg, streamer)
	})

	return &Server{Echo: e}
}

func serveSession(c echo.Context, cfg config.Config, streamer agent.Streamer) error {
	conn, err := bridge.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return err
	}
	b := bridge.New(conn)
	defer func() { _ = b.Close() }()

	sess := agent.NewSession(streamer, b, b, agent.Options{
		DefaultLanguage: cfg.DefaultLanguage,
		OnTranscript:    b.PushTranscript,
		OnStatus:        b.PushStatus,
		OnError:         b.PushError,
	})
	defer sess.Close()

	ctx := c.Request().Context()
	b.Wire(
		func() { sess.ToggleListening(ctx) },
		func(text string) { sess.SendTextMessage(ctx, text) },
	)

	// Greeting streams while the read loop serves client frames.
	go sess.Initialize(ctx)

	b.Run()
	return nil
}
