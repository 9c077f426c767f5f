package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dumu-tech/meta-webhook-gateway/internal/adapters/http"
	"github.com/dumu-tech/meta-webhook-gateway/internal/adapters/whatsapp"
	"github.com/dumu-tech/meta-webhook-gateway/internal/config"
	"github.com/dumu-tech/meta-webhook-gateway/internal/events"
	"github.com/dumu-tech/meta-webhook-gateway/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	mainCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize WhatsApp client
	whatsappClient := whatsapp.NewClient(whatsapp.Config{
		BaseURL:       cfg.GraphAPIBaseURL,
		APIVersion:    cfg.GraphAPIVersion,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		Token:         cfg.WhatsAppToken,
		Timeout:       cfg.SendTimeout,
	})

	// Routing pipeline
	router := service.NewRouter(service.NewBusinessHandler(whatsappClient, service.NewComposer()))
	processor := events.NewProcessor(router, cfg.ProcessingTimeout, logger)

	app := http.NewApp(http.NewHandler(cfg, processor, logger), logger)

	logStartup(logger, cfg)

	group, groupCtx := errgroup.WithContext(mainCtx)
	runFiber(groupCtx, group, app, ":"+cfg.Port, processor, logger)

	if err := group.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Server stopped")
}

func newLogger(level string) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, err
	}
	zerolog.SetGlobalLevel(parsed)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", "meta-webhook-gateway").
		Logger()
	// Handlers reach the logger through zerolog.Ctx; fall back to the root one
	zerolog.DefaultContextLogger = &logger
	return logger, nil
}

func logStartup(logger zerolog.Logger, cfg config.Config) {
	logger.Info().
		Str("port", cfg.Port).
		Str("webhook_url", "http://localhost:"+cfg.Port+"/webhook").
		Bool("signature_verification", cfg.SignatureEnabled()).
		Bool("whatsapp_sender", cfg.SenderConfigured()).
		Bool("test_endpoint", cfg.EnableTestEndpoint).
		Msg("Meta Webhook Server starting")

	if cfg.UsesPlaceholderToken() {
		logger.Warn().Msg("VERIFY_TOKEN is not set, using the placeholder token. Set your environment variables for production!")
	}
	if !cfg.SignatureEnabled() {
		logger.Warn().Msg("META_APP_SECRET is not set, webhook signatures will not be verified")
	} else if !cfg.RequireSignature {
		logger.Warn().Msg("REQUIRE_SIGNATURE is false, unsigned webhooks will be accepted")
	}
	if !cfg.SenderConfigured() {
		logger.Warn().Msg("WhatsApp credentials are missing, replies will not be sent")
	}
}

// runFiber serves app until ctx is done, then stops accepting requests and
// drains in-flight deliveries.
func runFiber(ctx context.Context, group *errgroup.Group, app *fiber.App, addr string, processor *events.Processor, logger zerolog.Logger) {
	group.Go(func() error {
		if err := app.Listen(addr); err != nil {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := processor.Wait(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})
}
