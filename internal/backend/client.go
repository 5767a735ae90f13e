package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/transferpeer/peerconnect/internal/models"
	"github.com/transferpeer/peerconnect/pkg/circuitbreaker"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
	"github.com/transferpeer/peerconnect/pkg/httpclient"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"github.com/transferpeer/peerconnect/pkg/metrics"
	"github.com/transferpeer/peerconnect/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	serviceName     = "transfer-connect-backend"
	maxResponseSize = 1 << 20
)

// Client is the Transfer Connect backend contract
type Client interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetProfile(ctx context.Context, id models.UserID) (*Profile, error)
	UpdateProfile(ctx context.Context, id models.UserID, profile Profile) (*Ack, error)
	UpdateDesiredSchool(ctx context.Context, id models.UserID, school string) (*Ack, error)
	GetMatches(ctx context.Context, id models.UserID) ([]Mentor, error)
	UpdatePassword(ctx context.Context, id models.UserID, password string) (*Ack, error)
}

// HTTPClient talks to the backend over JSON/HTTP with circuit breaker protection
type HTTPClient struct {
	baseURL    string
	httpClient httpclient.Client
	breaker    *circuitbreaker.Breaker
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a backend client for baseURL (e.g. http://127.0.0.1:8000)
func NewHTTPClient(baseURL string, httpClient httpclient.Client) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", baseURL)
	}

	settings := circuitbreaker.Defaults("backend")
	// 4xx answers mean the backend is healthy
	settings.Healthy = func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.StatusCode < 500
		}
		return err == nil || errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled)
	}

	logger.Info("Backend client initialized", zap.String("base_url", u.String()))

	return &HTTPClient{
		baseURL:    u.String(),
		httpClient: httpClient,
		breaker:    circuitbreaker.New(settings),
	}, nil
}

// BreakerState reports the state of the backend circuit breaker
func (c *HTTPClient) BreakerState() string {
	return c.breaker.State()
}

// Signup creates an account
func (c *HTTPClient) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.call(ctx, "signup", http.MethodPost, "/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login checks credentials
func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.call(ctx, "login", http.MethodPost, "/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile fetches the profile of a user
func (c *HTTPClient) GetProfile(ctx context.Context, id models.UserID) (*Profile, error) {
	var out Profile
	if err := c.call(ctx, "getProfile", http.MethodGet, "/profile/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile replaces the profile of a user
func (c *HTTPClient) UpdateProfile(ctx context.Context, id models.UserID, profile Profile) (*Ack, error) {
	var out Ack
	if err := c.call(ctx, "updateProfile", http.MethodPut, "/update_profile/"+url.PathEscape(id.String()), profile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDesiredSchool stores the target university of a student
func (c *HTTPClient) UpdateDesiredSchool(ctx context.Context, id models.UserID, school string) (*Ack, error) {
	var out Ack
	body := DesiredSchoolRequest{DesiredSchool: school}
	if err := c.call(ctx, "updateDesiredSchool", http.MethodPut, "/update_desired_school/"+url.PathEscape(id.String()), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMatches returns the mentors matched to a student
func (c *HTTPClient) GetMatches(ctx context.Context, id models.UserID) ([]Mentor, error) {
	var out []Mentor
	if err := c.call(ctx, "getMatches", http.MethodGet, "/matches/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Mentor{}
	}
	return out, nil
}

// UpdatePassword sets a new password for a user
func (c *HTTPClient) UpdatePassword(ctx context.Context, id models.UserID, password string) (*Ack, error) {
	var out Ack
	body := PasswordRequest{Password: password}
	if err := c.call(ctx, "updatePassword", http.MethodPut, "/update_password/"+url.PathEscape(id.String()), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call runs one request through the breaker and records metrics, logs and a span
func (c *HTTPClient) call(ctx context.Context, operation, method, path string, in, out any) error {
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "backend."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	err := c.breaker.Do(func() error {
		return c.do(ctx, operation, method, path, in, out)
	})
	if circuitbreaker.IsOpen(err) {
		err = pkgerrors.UnavailableError("backend", err)
	}

	duration := metrics.MeasureDuration(start)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, Reason(err))
	}
	metrics.BackendRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.BackendRequestTotal.WithLabelValues(operation, status).Inc()

	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			// Rejections are part of normal use (wrong password, unknown user)
			logger.Warn("Backend rejected request",
				zap.String("operation", operation),
				zap.Int("status_code", apiErr.StatusCode),
				zap.String("detail", apiErr.Detail),
				zap.Float64("duration", duration))
			return err
		}
		logger.LogAPICall(ctx, serviceName, operation, status, duration, zap.Error(err))
		return err
	}

	logger.LogAPICall(ctx, serviceName, operation, status, duration)
	return nil
}

func (c *HTTPClient) do(ctx context.Context, operation, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(operation, resp, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %v", operation, ErrMalformedResponse, err)
	}
	return nil
}
