package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/LavaJover/shvark-payu-service/internal/signature"
	"github.com/go-playground/validator/v10"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultRequestTimeout = 60 * time.Second
	maxResponseBytes      = 8 << 20
)

// Config selects one gateway environment. It is fixed for the lifetime of
// a PayUClient.
type Config struct {
	Key            string
	Salt           string
	PaymentURL     string
	APIURL         string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Recorder       CallRecorder
}

type PayUClient struct {
	signer     *signature.Signer
	paymentURL string
	apiURL     string
	http       *http.Client
	validate   *validator.Validate
	recorder   CallRecorder
}

func NewPayUClient(cfg Config) (*PayUClient, error) {
	if cfg.Key == "" || cfg.Salt == "" {
		return nil, fmt.Errorf("%w: merchant key and salt are required", domain.ErrInvalidParams)
	}
	if cfg.APIURL == "" || cfg.PaymentURL == "" {
		return nil, fmt.Errorf("%w: gateway urls are required", domain.ErrInvalidParams)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &PayUClient{
		signer:     signature.NewSigner(cfg.Key, cfg.Salt),
		paymentURL: cfg.PaymentURL,
		apiURL:     cfg.APIURL,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		validate: validator.New(),
		recorder: cfg.Recorder,
	}, nil
}

// PaymentURL is where the browser form is posted.
func (c *PayUClient) PaymentURL() string { return c.paymentURL }

func (c *PayUClient) Signer() *signature.Signer { return c.signer }

func (c *PayUClient) check(params any) error {
	if err := c.validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}
	return nil
}

func (c *PayUClient) checkVar(name, value, tag string) error {
	if err := c.validate.Var(value, tag); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidParams, name, err)
	}
	return nil
}

// execute signs and posts one command. It never fails: transport problems
// come back as a failure Result.
func (c *PayUClient) execute(ctx context.Context, command string, vars ...string) Result {
	for len(vars) > 1 && vars[len(vars)-1] == "" {
		vars = vars[:len(vars)-1]
	}
	var1 := ""
	if len(vars) > 0 {
		var1 = vars[0]
	}

	form := url.Values{}
	form.Set("key", c.signer.Key())
	form.Set("command", command)
	for i, v := range vars {
		form.Set(fmt.Sprintf("var%d", i+1), v)
	}
	form.Set("hash", c.signer.SignCommand(command, var1))

	start := time.Now()
	res, httpStatus := c.post(ctx, form)

	if c.recorder != nil {
		c.recorder.RecordCall(ctx, CallRecord{
			Command:    command,
			Var1:       var1,
			OK:         res.OK(),
			HTTPStatus: httpStatus,
			Message:    res.Message(),
			Duration:   time.Since(start),
			At:         start,
		})
	}
	return res
}

func (c *PayUClient) post(ctx context.Context, form url.Values) (Result, int) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return FailureResult("request error: " + err.Error()), 0
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return FailureResult("transport error: " + err.Error()), 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return FailureResult(fmt.Sprintf("HTTP Error: %d", resp.StatusCode)), resp.StatusCode
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return FailureResult("read error: " + err.Error()), resp.StatusCode
	}
	return ParseResult(body), resp.StatusCode
}
