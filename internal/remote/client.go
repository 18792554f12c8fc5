package remote

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/infrastructure/resilience"
)

// Observer receives remote call telemetry.
type Observer interface {
	RecordRemoteCall(endpoint, outcome string, duration time.Duration)
}

// Config defines the remote client behavior. Timeout bounds every call;
// a timed-out call surfaces as a transport error.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client calls the document service with retry, rate limiting, and
// circuit breaker protection.
type Client struct {
	http     *resty.Client
	breaker  *resilience.Breaker
	limiter  *rate.Limiter
	logger   *logging.Logger
	observer Observer
}

// NewClient creates a production-ready document service client.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil // Disable logging

	restyClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "ZettelHub/1.0").
		SetHeader("Content-Type", "application/json")
	// The retry loop lives in retryablehttp's Do; wrapping the client
	// as a RoundTripper keeps it on the path of every resty request.
	restyClient.SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	breaker := resilience.New("document-service", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		Probes:           3,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		http:    restyClient,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Inf, 0), // Unlimited by default
		logger:  logger,
	}
}

// WithObserver attaches a telemetry observer.
func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// SetRateLimit configures outbound rate limiting (requests per second).
func (c *Client) SetRateLimit(rps float64) {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// FilterDocuments resolves the library subset relevant to a focus
// prompt. The returned slice is never nil on success; empty means
// "no relevant documents".
func (c *Client) FilterDocuments(ctx context.Context, prompt string) (files []string, err error) {
	defer c.observe("filter", time.Now(), &err)

	body, err := c.call(ctx, http.MethodPost, "/filter-documents", FilterRequest{FilterPrompt: prompt})
	if err != nil {
		return nil, err
	}

	var out FilterResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, NewTransportError("malformed response from document service")
	}
	if out.Status != StatusSuccess {
		return nil, NewApplicationError(out.Message)
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	return out.Files, nil
}

// Answer asks the service to answer question grounded in the named
// context document.
func (c *Client) Answer(ctx context.Context, filename, question string) (answer string, err error) {
	defer c.observe("chat", time.Now(), &err)

	body, err := c.call(ctx, http.MethodPost, "/chat", ChatRequest{Filename: filename, Question: question})
	if err != nil {
		return "", err
	}

	var out ChatResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return "", NewTransportError("malformed response from document service")
	}
	if out.Status != StatusSuccess {
		return "", NewApplicationError(out.Message)
	}
	return out.Answer, nil
}

// ListDocuments fetches the full document library.
func (c *Client) ListDocuments(ctx context.Context) (files []string, err error) {
	defer c.observe("documents", time.Now(), &err)

	body, err := c.call(ctx, http.MethodGet, "/documents", nil)
	if err != nil {
		return nil, err
	}

	var out DocumentsResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, NewTransportError("malformed response from document service")
	}
	if out.Status != StatusSuccess {
		return nil, NewApplicationError(out.Message)
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	return out.Files, nil
}

// call runs one request through the limiter and circuit breaker. The
// body bytes come back regardless of HTTP status: the service signals
// application errors in the JSON payload, not the status code.
func (c *Client) call(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, NewTransportError("document service unavailable: circuit breaker open")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewTransportError("rate limit: " + err.Error())
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req := c.http.R().SetContext(ctx)
		if payload != nil {
			req.SetBody(payload)
		}
		switch method {
		case http.MethodGet:
			return req.Get(endpoint)
		default:
			return req.Post(endpoint)
		}
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, NewTransportError("document service unavailable: circuit breaker open")
		}
		c.logger.Warn("Remote call failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, NewTransportError(err.Error())
	}

	return result.(*resty.Response).Body(), nil
}

func (c *Client) observe(endpoint string, start time.Time, errp *error) {
	if c.observer == nil {
		return
	}
	outcome := "success"
	if err := *errp; err != nil {
		outcome = string(Classify(err)) + "_error"
	}
	c.observer.RecordRemoteCall(endpoint, outcome, time.Since(start))
}
