package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avkor/giftsniper/business/gifts/app"
	"github.com/avkor/giftsniper/business/gifts/domain"
	"github.com/avkor/giftsniper/internal/apperror"
	"github.com/avkor/giftsniper/internal/httpclient"
	"github.com/avkor/giftsniper/internal/logger"
	"github.com/avkor/giftsniper/internal/ratelimit"
	"github.com/avkor/giftsniper/internal/stars"
)

const (
	tracerName = "telegram_gateway"

	sessionOpenEndpoint  = "/v1/session/open"
	sessionCloseEndpoint = "/v1/session/close"
	resolveEndpoint      = "/v1/contacts/resolve"
	starsStatusEndpoint  = "/v1/payments/stars/status"
	starGiftsEndpoint    = "/v1/payments/star-gifts"
	paymentFormEndpoint  = "/v1/payments/form"
	submitFormEndpoint   = "/v1/payments/form/submit"

	defaultTimeout = 10 * time.Second
)

// ClientConfig holds gateway connection settings shared by all sessions.
type ClientConfig struct {
	BaseURL           string
	APIID             int
	APIHash           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Dialer creates gateway-backed Platform sessions.
type Dialer struct {
	config ClientConfig
	logger logger.LoggerInterface
}

// NewDialer creates a Dialer.
func NewDialer(cfg ClientConfig, log logger.LoggerInterface) *Dialer {
	return &Dialer{config: cfg, logger: log}
}

// Dial builds an unopened Platform bound to one session file.
func (d *Dialer) Dial(session string) (app.Platform, error) {
	return NewClient(d.config, session, d.logger)
}

// Client implements app.Platform over the gateway's HTTP API.
type Client struct {
	client  httpclient.Client
	limiter *ratelimit.Limiter
	config  ClientConfig
	session string
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates a gateway client for one session. No network
// happens until Open.
func NewClient(cfg ClientConfig, session string, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("gateway base URL is required"))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 120
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("telegram_gateway"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(tracer),
		httpclient.WithHeaders(map[string]string{
			"Accept":             "application/json",
			"X-Telegram-Session": session,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client:  client,
		limiter: ratelimit.New(rpm),
		config:  cfg,
		session: session,
		logger:  log,
		tracer:  tracer,
	}, nil
}

// Open connects the session and verifies authorization.
func (c *Client) Open(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, span := c.tracer.Start(ctx, "gateway.session_open",
		trace.WithAttributes(attribute.String("session", c.session)))
	defer span.End()

	var result sessionOpenResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "session_open")),
		httpclient.WithResponseErrorHandler(gatewayErrorHandler),
	).
		SetBody(sessionOpenRequest{
			Session: c.session,
			APIID:   c.config.APIID,
			APIHash: c.config.APIHash,
		}).
		SetResult(&result).
		Post(ctx, sessionOpenEndpoint)

	if err != nil {
		span.RecordError(err)
		return apperror.Wrap(err, apperror.CodeGatewayConnectionFailed, "session open failed")
	}
	if resp.IsError() {
		return gatewayStatusError(resp)
	}
	if !result.Authorized {
		return apperror.New(apperror.CodeAuthRequired,
			apperror.WithContext(fmt.Sprintf("session %q is not logged in", c.session)))
	}

	c.logger.Debug(ctx, "session opened", "session", c.session, "user_id", result.UserID)
	return nil
}

// Close releases the session.
func (c *Client) Close(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "session_close")),
	).Post(ctx, sessionCloseEndpoint)
	if err != nil {
		c.logger.Warn(ctx, "session close failed", "session", c.session, "error", err)
	}
	return nil
}

// ResolveRecipient resolves a username or "me" to a peer.
func (c *Client) ResolveRecipient(ctx context.Context, recipient string) (domain.Peer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Peer{}, err
	}

	ctx, span := c.tracer.Start(ctx, "gateway.resolve_recipient",
		trace.WithAttributes(attribute.String("recipient", recipient)))
	defer span.End()

	var result resolveResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "resolve")),
		httpclient.WithResponseErrorHandler(gatewayErrorHandler),
	).
		SetBody(resolveRequest{Recipient: recipient}).
		SetResult(&result).
		Post(ctx, resolveEndpoint)

	if err != nil {
		span.RecordError(err)
		return domain.Peer{}, apperror.Wrap(err, apperror.CodeRecipientNotFound,
			fmt.Sprintf("could not resolve %q", recipient))
	}
	if resp.IsError() {
		return domain.Peer{}, gatewayStatusError(resp)
	}

	return domain.Peer{ID: result.ID, Username: result.Username}, nil
}

// StarsBalance returns the current Stars balance.
func (c *Client) StarsBalance(ctx context.Context) (stars.Amount, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return stars.Zero(), err
	}

	ctx, span := c.tracer.Start(ctx, "gateway.stars_balance")
	defer span.End()

	var result starsStatusResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "stars_status")),
		httpclient.WithResponseErrorHandler(gatewayErrorHandler),
	).
		SetResult(&result).
		Get(ctx, starsStatusEndpoint)

	if err != nil {
		span.RecordError(err)
		return stars.Zero(), apperror.Wrap(err, apperror.CodeBalanceFetchFailed, "stars status failed")
	}
	if resp.IsError() {
		return stars.Zero(), gatewayStatusError(resp)
	}

	balance := result.Balance.toAmount()
	span.SetAttributes(attribute.String("balance", balance.String()))
	return balance, nil
}

// StarGifts fetches the catalog snapshot. hash is the previous
// snapshot's token; the gateway answers not_modified when nothing
// changed.
func (c *Client) StarGifts(ctx context.Context, hash int64) (domain.CatalogPage, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.CatalogPage{}, false, err
	}

	ctx, span := c.tracer.Start(ctx, "gateway.star_gifts",
		trace.WithAttributes(attribute.Int64("hash", hash)))
	defer span.End()

	var result starGiftsResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "star_gifts")),
		httpclient.WithResponseErrorHandler(gatewayErrorHandler),
	).
		SetQueryParam("hash", strconv.FormatInt(hash, 10)).
		SetResult(&result).
		Get(ctx, starGiftsEndpoint)

	if err != nil {
		span.RecordError(err)
		return domain.CatalogPage{}, false, apperror.Wrap(err, apperror.CodeCatalogFetchFailed, "star gifts fetch failed")
	}
	if resp.IsError() {
		return domain.CatalogPage{}, false, gatewayStatusError(resp)
	}

	if result.NotModified {
		span.SetAttributes(attribute.Bool("not_modified", true))
		return domain.CatalogPage{}, true, nil
	}

	gifts := make([]domain.Gift, 0, len(result.Gifts))
	for _, g := range result.Gifts {
		gifts = append(gifts, g.toDomain())
	}
	span.SetAttributes(attribute.Int("gifts", len(gifts)))

	return domain.CatalogPage{Hash: result.Hash, Gifts: gifts}, false, nil
}

// PaymentForm prepares payment for a single gift.
func (c *Client) PaymentForm(ctx context.Context, peer domain.Peer, giftID int64) (domain.PaymentForm, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.PaymentForm{}, err
	}

	ctx, span := c.tracer.Start(ctx, "gateway.payment_form",
		trace.WithAttributes(attribute.Int64("gift_id", giftID)))
	defer span.End()

	var result paymentFormResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "payment_form")),
		httpclient.WithResponseErrorHandler(gatewayErrorHandler),
	).
		SetBody(paymentFormRequest{PeerID: peer.ID, GiftID: giftID}).
		SetResult(&result).
		Post(ctx, paymentFormEndpoint)

	if err != nil {
		span.RecordError(err)
		return domain.PaymentForm{}, apperror.Wrap(err, apperror.CodePaymentFormFailed,
			fmt.Sprintf("payment form for gift %d failed", giftID))
	}
	if resp.IsError() {
		return domain.PaymentForm{}, gatewayStatusError(resp)
	}

	return result.toDomain(peer, giftID), nil
}

// SubmitForm submits a prepared payment form.
func (c *Client) SubmitForm(ctx context.Context, form domain.PaymentForm) (domain.Receipt, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Receipt{}, err
	}

	ctx, span := c.tracer.Start(ctx, "gateway.submit_form",
		trace.WithAttributes(
			attribute.Int64("form_id", form.ID),
			attribute.Int64("gift_id", form.GiftID),
		))
	defer span.End()

	var result submitFormResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "submit_form")),
		httpclient.WithResponseErrorHandler(gatewayErrorHandler),
	).
		SetBody(submitFormRequest{FormID: form.ID, GiftID: form.GiftID}).
		SetResult(&result).
		Post(ctx, submitFormEndpoint)

	if err != nil {
		span.RecordError(err)
		return domain.Receipt{}, apperror.Wrap(err, apperror.CodePaymentRejected,
			fmt.Sprintf("payment for gift %d failed", form.GiftID))
	}
	if resp.IsError() {
		return domain.Receipt{}, gatewayStatusError(resp)
	}
	if !result.Success {
		return domain.Receipt{}, apperror.New(apperror.CodePaymentRejected,
			apperror.WithContext(fmt.Sprintf("gateway rejected payment for gift %d", form.GiftID)))
	}

	price := result.Paid.toAmount()
	if price.IsZero() {
		price = form.Price
	}
	return domain.Receipt{FormID: form.ID, GiftID: form.GiftID, Price: price}, nil
}

// GatewayAPIError is the gateway's structured error response.
type GatewayAPIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayAPIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway HTTP %d: %s", e.StatusCode, e.Message)
}

// gatewayErrorHandler maps gateway error responses to coded errors.
func gatewayErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}

	apiErr := &GatewayAPIError{StatusCode: statusCode}
	var envelope gatewayError
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = string(body)
	}

	switch {
	case statusCode == http.StatusUnauthorized || apiErr.Code == "AUTH_KEY_UNREGISTERED":
		return apperror.New(apperror.CodeAuthRequired, apperror.WithCause(apiErr))
	case statusCode == http.StatusTooManyRequests:
		return apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(apiErr))
	}
	return apiErr
}

// gatewayStatusError covers error statuses that slipped past the
// handler (empty bodies and the like).
func gatewayStatusError(resp *httpclient.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return apperror.New(apperror.CodeAuthRequired)
	}
	return apperror.New(apperror.CodeExternalServiceError,
		apperror.WithContext(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String())))
}
