package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dumu-tech/meta-webhook-gateway/internal/config"
	"github.com/dumu-tech/meta-webhook-gateway/internal/core"
	"github.com/dumu-tech/meta-webhook-gateway/internal/events"
	"github.com/dumu-tech/meta-webhook-gateway/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// EventReceived is the body acknowledging every accepted POST /webhook
	EventReceived = "EVENT_RECEIVED"

	defaultTestMessage = "Hello, this is a test message!"
	testSenderAddress  = "1234567890"
	testPhoneNumberID  = "test-phone-id"

	isoMillisLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Processor accepts validated deliveries for detached routing. Submit fails
// once the processor has stopped accepting work.
type Processor interface {
	Submit(event events.Event) error
}

// Handler handles HTTP requests for the Meta webhook
type Handler struct {
	cfg       config.Config
	verifier  *service.SignatureVerifier
	processor Processor
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg config.Config, processor Processor, logger zerolog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		verifier:  service.NewSignatureVerifier(cfg.AppSecret, cfg.RequireSignature),
		processor: processor,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRoutes mounts the webhook routes on app
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.Health)

	// GET for subscription verification, POST for event delivery
	app.Get("/webhook", h.VerifyWebhook)
	app.Post("/webhook", h.ReceiveEvent)

	if h.cfg.EnableTestEndpoint {
		app.Post("/test-whatsapp", h.TestWhatsApp)
	}
}

// Health reports liveness and which credentials are present. Values are never included.
func (h *Handler) Health(c *fiber.Ctx) error {
	endpoints := fiber.Map{
		"webhook_verification": "GET /webhook",
		"webhook_events":       "POST /webhook",
	}
	if h.cfg.EnableTestEndpoint {
		endpoints["test_whatsapp"] = "POST /test-whatsapp"
	}

	return c.JSON(fiber.Map{
		"status":    "Meta Webhook Server is running",
		"timestamp": h.now().UTC().Format(isoMillisLayout),
		"endpoints": endpoints,
		"environment": fiber.Map{
			"hasWhatsAppToken": h.cfg.WhatsAppToken != "",
			"hasPhoneNumberId": h.cfg.WhatsAppPhoneNumberID != "",
			"hasAppSecret":     h.cfg.AppSecret != "",
		},
	})
}

// VerifyWebhook handles GET requests for webhook verification
func (h *Handler) VerifyWebhook(c *fiber.Ctx) error {
	req := core.VerificationRequest{
		Mode:      c.Query("hub.mode"),
		Token:     c.Query("hub.verify_token"),
		Challenge: c.Query("hub.challenge"),
	}

	log := h.logger.With().
		Str("mode", req.Mode).
		Bool("has_token", req.Token != "").
		Int("challenge_length", len(req.Challenge)).
		Logger()

	if err := service.VerifyHandshake(req, h.cfg.VerifyToken); err != nil {
		log.Warn().Err(err).Msg("Webhook verification failed")
		return err
	}

	log.Info().Msg("Webhook verified")
	// Challenge goes back as plain text, exactly as received
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(req.Challenge)
}

// ReceiveEvent handles POST requests carrying webhook events. The envelope is
// checked synchronously; routing runs detached after the acknowledgment.
func (h *Handler) ReceiveEvent(c *fiber.Ctx) error {
	receivedAt := h.now()
	// Bytes exactly as received. c.Body() would apply Content-Encoding first.
	body := c.Request().Body()

	if err := h.verifier.Verify(body, c.Get(service.SignatureHeader)); err != nil {
		h.logger.Warn().Err(err).Str("ip", c.IP()).Msg("Rejected webhook with bad signature")
		return err
	}

	var env core.Envelope
	if len(body) > 0 {
		// Unmarshal copies out of the request buffer, which fiber reuses after the handler returns
		if err := json.Unmarshal(body, &env); err != nil {
			h.logger.Warn().Err(err).Msg("Rejected webhook with invalid JSON")
			return fmt.Errorf("invalid webhook payload: %w", core.ErrMalformedRequest)
		}
	}

	if err := env.Validate(); err != nil {
		h.logger.Warn().Err(err).Msg("Rejected webhook without object")
		return err
	}

	deliveryID := uuid.NewString()
	h.logger.Info().
		Str("delivery_id", deliveryID).
		Str("object", env.Object).
		Int("entries", len(env.Entry)).
		Msg("Webhook event received")

	if err := h.processor.Submit(events.Event{
		DeliveryID: deliveryID,
		ReceivedAt: receivedAt,
		Envelope:   &env,
	}); err != nil {
		h.logger.Warn().Err(err).Str("delivery_id", deliveryID).Msg("Webhook event not accepted")
		return err
	}

	return c.Status(fiber.StatusOK).SendString(EventReceived)
}

type testWhatsAppRequest struct {
	Message string `json:"message"`
}

// TestWhatsApp feeds a synthetic text message through the business pipeline
func (h *Handler) TestWhatsApp(c *fiber.Ctx) error {
	var req testWhatsAppRequest
	if body := c.Request().Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("invalid test payload: %w", core.ErrMalformedRequest)
		}
	}

	env, err := h.testEnvelope(req.Message)
	if err != nil {
		return err
	}

	deliveryID := uuid.NewString()
	h.logger.Info().Str("delivery_id", deliveryID).Msg("Simulating WhatsApp webhook with test data")

	if err := h.processor.Submit(events.Event{
		DeliveryID: deliveryID,
		ReceivedAt: h.now(),
		Envelope:   env,
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "Test message processed",
		"message": "Check logs for WhatsApp processing details",
	})
}

func (h *Handler) testEnvelope(message string) (*core.Envelope, error) {
	if message == "" {
		message = defaultTestMessage
	}
	phoneNumberID := h.cfg.WhatsAppPhoneNumberID
	if phoneNumberID == "" {
		phoneNumberID = testPhoneNumberID
	}

	value, err := json.Marshal(core.BusinessMessageValue{
		MessagingProduct: "whatsapp",
		Metadata: core.Metadata{
			DisplayPhoneNumber: testSenderAddress,
			PhoneNumberID:      phoneNumberID,
		},
		Messages: []core.InboundMessage{{
			From:      testSenderAddress,
			ID:        "test-message-id",
			Timestamp: strconv.FormatInt(h.now().UnixMilli(), 10),
			Type:      "text",
			Text:      &core.TextBody{Body: message},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build test message: %w", err)
	}

	return core.NewEnvelope("whatsapp_business_account", core.Entry{
		ID:      "test-entry",
		Changes: []core.Change{{Field: "messages", Value: value}},
	})
}
