package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-storefront-auth"
	"github.com/goliatone/go-storefront-auth/audit"
	"github.com/goliatone/go-storefront-auth/config"
	"github.com/goliatone/go-storefront-auth/migrations"
	"github.com/goliatone/go-storefront-auth/persistence"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront API server",
		Long:  `Opens the database, applies pending migrations and serves the HTTP API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	lgr := newLogger(cfg.Debug)
	log := lgr.GetLogger("storefront")
	if cfg.Debug {
		log.Debug("configuration loaded", "config", print.MaybePrettyJSON(cfg))
	}

	db, err := persistence.Open(ctx, cfg.DatabaseURL, persistence.Options{
		MaxOpenConns: cfg.MaxDBConnections,
		Debug:        cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer persistence.Close(db)
	log.Info("connected to database", "type", persistence.DetectDatabaseType(cfg.DatabaseURL))

	group, err := migrations.Run(ctx, db)
	if err != nil {
		return err
	}
	if group.ID != 0 {
		log.Info("applied migrations", "group", group.ID)
	}

	auditOut, closeAudit, err := openAuditOutput(cfg.AuditLogPath)
	if err != nil {
		return err
	}
	defer closeAudit()

	controller, err := newController(db, cfg, lgr, audit.NewLogrusSink(audit.NewLogger(auditOut)))
	if err != nil {
		return err
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})
	srv.Router().WithLogger(lgr.GetLogger("router"))
	controller.RegisterRoutes(srv.Router())

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ServerAddr)
		if err := srv.Serve(cfg.ServerAddr); err != nil {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-shutdown:
		log.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newController wires repositories and services into the HTTP controller
func newController(db *bun.DB, c *config.Config, lgr *glog.BaseLogger, sink auth.ActivitySink) (*auth.HTTPController, error) {
	tokens, err := auth.NewTokenServiceFromConfig(c, lgr.GetLogger("auth:tokens"))
	if err != nil {
		return nil, err
	}

	repo := auth.NewRepositoryManager(db, auth.WithRoleCacheSize(c.RoleCacheSize))
	if err := repo.Validate(); err != nil {
		return nil, err
	}

	accounts := auth.NewAuthenticator(repo, tokens,
		auth.WithPasswordHasher(auth.NewBcryptHasher(c.GetBcryptCost())),
		auth.WithAutherActivitySink(sink),
		auth.WithAutherLogger(lgr.GetLogger("auth:accounts")),
		auth.WithHashedUserIDs(c.HashedUserIDs),
	)

	reviews := auth.NewReviewService(repo.Reviews()).
		WithActivitySink(sink).
		WithLogger(lgr.GetLogger("reviews"))

	wishlist := auth.NewWishlistService(repo.Wishlist()).
		WithLogger(lgr.GetLogger("wishlist"))

	tickets := auth.NewTicketService(repo.Tickets()).
		WithActivitySink(sink).
		WithLogger(lgr.GetLogger("tickets"))

	httpAuth := auth.NewHTTPAuthenticator(auth.NewVerifier(tokens).WithLogger(lgr.GetLogger("auth:verifier")), c).
		WithLogger(lgr.GetLogger("auth:http"))

	return auth.NewHTTPController(
		auth.WithRouteAuthenticator(httpAuth),
		auth.WithAccounts(accounts),
		auth.WithReviews(reviews),
		auth.WithWishlist(wishlist),
		auth.WithTickets(tickets),
		auth.WithControllerLogger(lgr.GetLogger("auth:ctrl")),
	), nil
}

func openAuditOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
