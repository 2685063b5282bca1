package scmapi

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

	"github.com/sony/gobreaker"

	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// Config parámetros del cliente de la API remota.
type Config struct {
	BaseURL         string
	Token           string // token de servicio si la petición no trae uno
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	HTTPClient      *http.Client // opcional (tests)
}

// Client cliente HTTP de la API SCM. Implementa los repositorios de dominio a través de sus vistas.
type Client struct {
	base    string
	token   string
	timeout time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	metrics ports.Metrics
	log     *logger.Logger
}

type tokenKey struct{}

// WithToken adjunta al contexto el bearer token del usuario para reenviarlo al remoto.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// New crea el cliente.
func New(cfg Config, metrics ports.Metrics, log *logger.Logger) *Client {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log = log.Component("scmapi")

	c := &Client{
		base:    cfg.BaseURL,
		token:   cfg.Token,
		timeout: cfg.Timeout,
		http:    hc,
		metrics: metrics,
		log:     log,
	}
	failures := cfg.BreakerFailures
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "scm-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cambio de estado del circuit breaker")
		},
	})
	return c
}

// response respuesta no 5xx; los 4xx no cuentan como fallo del breaker.
type response struct {
	status int
	body   []byte
}

// do ejecuta la petición a través del breaker y devuelve el cuerpo de una respuesta exitosa.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, idemKey string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("serializar cuerpo de %s: %w", op, err)
			}
		}
		payload = raw
	}
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	start := time.Now()
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, path, target, idemKey, payload)
	})
	if err != nil {
		outcome := "transport_error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "breaker_open"
			err = fmt.Errorf("%w: circuit breaker abierto para %s: %w", domain.ErrUpstream, op, err)
		case errors.Is(err, domain.ErrUpstream):
			outcome = "server_error"
		default:
			err = fmt.Errorf("%w: %s %s: %w", domain.ErrUpstream, method, path, err)
		}
		c.metrics.APIRequest(op, outcome, time.Since(start))
		c.log.Warn().Err(err).Str("op", op).Msg("fallo llamando a la API SCM")
		return nil, err
	}

	resp := out.(response)
	if err := mapStatus(method, path, resp.status, resp.body); err != nil {
		c.metrics.APIRequest(op, "client_error", time.Since(start))
		return nil, err
	}
	c.metrics.APIRequest(op, "ok", time.Since(start))
	return resp.body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, target, idemKey string, payload []byte) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return response{}, fmt.Errorf("crear petición: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := tokenFrom(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return response{}, fmt.Errorf("leer respuesta: %w", err)
	}
	if res.StatusCode >= 500 {
		return response{}, mapStatus(method, path, res.StatusCode, data)
	}
	return response{status: res.StatusCode, body: data}, nil
}

// getOne GET de un objeto; una respuesta vacía es ErrNotFound.
func (c *Client) getOne(ctx context.Context, op, path string, query url.Values) (json.RawMessage, error) {
	data, err := c.do(ctx, op, http.MethodGet, path, query, "", nil)
	if err != nil {
		return nil, err
	}
	obj, ok, err := decodeOne(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return obj, nil
}

// BreakerState estado actual del circuit breaker (para /health).
func (c *Client) BreakerState() string {
	return c.cb.State().String()
}
