// Package client is the Go SDK for the taxlink API. Every call takes a
// context and goes through an http.Client with an explicit timeout; a
// reply counts as successful only when the envelope code is SUCCESS.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
	session *Session
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		session: NewSession(nil),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)

		if err != nil {
			return err
		}

		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)

	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	var env envelope

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &HTTPError{Status: resp.StatusCode}
	}

	if env.Code != "SUCCESS" {
		return &APIError{Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}

	return nil
}

// Auth

func (c *Client) Register(ctx context.Context, in RegisterInput) (User, error) {
	var u User

	err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &u)

	return u, err
}

type loginPayload struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

// Login authenticates and installs the principal into the session.
// usernameOrEmail may be either the username or the registered email.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (User, error) {
	var payload loginPayload

	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}, &payload)

	if err != nil {
		return User{}, err
	}

	err = c.session.Set(Principal{
		SchemaVersion: sessionSchemaVersion,
		User:          payload.User,
		AccessToken:   payload.AccessToken,
	})

	if err != nil {
		return User{}, err
	}

	return payload.User, nil
}

func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) VerifyBusinessNumber(ctx context.Context, businessNumber string) (VerificationResult, error) {
	var result VerificationResult

	err := c.do(ctx, http.MethodPost, "/api/auth/verify-business-number", map[string]string{
		"businessNumber": businessNumber,
	}, &result)

	return result, err
}

func (c *Client) VerifyCorporateNumber(ctx context.Context, corporateNumber string) (VerificationResult, error) {
	var result VerificationResult

	err := c.do(ctx, http.MethodPost, "/api/auth/verify-corporate-number", map[string]string{
		"corporateNumber": corporateNumber,
	}, &result)

	return result, err
}

type VerificationCode struct {
	Code      string `json:"code,omitempty"`
	ExpiresIn int    `json:"expiresIn"`
}

func (c *Client) SendVerificationCode(ctx context.Context, phoneNumber string) (VerificationCode, error) {
	var out VerificationCode

	err := c.do(ctx, http.MethodPost, "/api/auth/send-verification-code", map[string]string{
		"phoneNumber": phoneNumber,
	}, &out)

	return out, err
}

func (c *Client) VerifyPhoneCode(ctx context.Context, phoneNumber, code string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/verify-phone-code", map[string]string{
		"phoneNumber": phoneNumber,
		"code":        code,
	}, nil)
}

// Profile

func (c *Client) Profile(ctx context.Context) (User, error) {
	var u User

	err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &u)

	return u, err
}

func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (User, error) {
	var u User

	err := c.do(ctx, http.MethodPut, "/api/users/me", patch, &u)

	return u, err
}

// Payment

func (c *Client) ProcessPayment(ctx context.Context) (User, error) {
	var u User

	err := c.do(ctx, http.MethodPost, "/api/payment/process", nil, &u)

	return u, err
}

func (c *Client) PaymentStatus(ctx context.Context) (PaymentStatus, error) {
	var status PaymentStatus

	err := c.do(ctx, http.MethodGet, "/api/payment/status", nil, &status)

	return status, err
}

// Mandate

func (c *Client) MandateRequest(ctx context.Context) (User, error) {
	var u User

	err := c.do(ctx, http.MethodPost, "/api/mandate/request", nil, &u)

	return u, err
}

func (c *Client) MandateSendRequest(ctx context.Context, clientID string) (User, error) {
	var u User

	err := c.do(ctx, http.MethodPost, "/api/mandate/send-request", map[string]string{"userId": clientID}, &u)

	return u, err
}

func (c *Client) MandateComplete(ctx context.Context) (User, error) {
	var u User

	err := c.do(ctx, http.MethodPost, "/api/mandate/complete", nil, &u)

	return u, err
}

func (c *Client) MandateReleaseRequest(ctx context.Context, clientID string) (User, error) {
	var u User

	err := c.do(ctx, http.MethodPost, "/api/mandate/release-request", map[string]string{"userId": clientID}, &u)

	return u, err
}

func (c *Client) MandateList(ctx context.Context) (MandateList, error) {
	var list MandateList

	err := c.do(ctx, http.MethodGet, "/api/mandate/list", nil, &list)

	return list, err
}

// Notifications

func (c *Client) Notifications(ctx context.Context) (NotificationList, error) {
	var list NotificationList

	err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &list)

	return list, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/"+id+"/read", nil, nil)
}

type unreadCount struct {
	Count int `json:"count"`
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out unreadCount

	err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out)

	return out.Count, err
}
