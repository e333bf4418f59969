package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbeisheim/dames-backend/internal/config"
	"github.com/benbeisheim/dames-backend/internal/controller"
	"github.com/benbeisheim/dames-backend/internal/log2"
	"github.com/benbeisheim/dames-backend/internal/middleware"
	"github.com/benbeisheim/dames-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	app := &cli.App{
		Name:   "dames-server",
		Usage:  "Serve French/Moroccan draughts games over HTTP and websockets",
		Flags:  config.Flags(),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cCtx *cli.Context) error {
	cfg, err := config.FromContext(cCtx)
	if err != nil {
		return err
	}
	log2.Configure(cfg.LogLevel, cfg.LogPretty)

	gameManager := service.NewGameManager()
	gameService := service.NewGameService(gameManager)
	app := newApp(cfg, gameService)

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gameManager.RunMatchmaking(ctx, cfg.MatchmakingInterval)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		return app.Listen(cfg.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		var errs error
		if err := gameManager.Shutdown(); err != nil {
			errs = multierror.Append(errs, err)
		}
		if err := app.Shutdown(); err != nil {
			errs = multierror.Append(errs, err)
		}
		return errs
	})

	return g.Wait()
}

func newApp(cfg config.Config, gameService *service.GameService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "dames",
		DisableStartupMessage: true,
		Immutable:             true,
	})

	origins := strings.Join(cfg.AllowOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods: "GET, POST, OPTIONS",
		// fiber refuses credentials together with a wildcard origin
		AllowCredentials: !strings.Contains(origins, "*"),
	}))
	app.Use(middleware.RequestLogger())

	gameController := controller.NewGameController(gameService)
	wsController := controller.NewWebSocketController(gameService)

	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         cfg.AllowOrigins,
	}
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	wsRoutes.Get("/game/:gameId", websocket.New(wsController.HandleConnection, wsConfig))
	wsRoutes.Get("/matchmaking", websocket.New(wsController.HandleMatchmaking, wsConfig))

	api := app.Group("/api", middleware.EnsurePlayerID())
	gameController.Register(api.Group("/game"))

	return app
}
