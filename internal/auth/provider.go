package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ProviderError is a non-2xx answer from the auth provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider (%d): %s", e.Status, e.Message)
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

type providerErrBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (b providerErrBody) text() string {
	for _, s := range []string{b.Msg, b.ErrorDescription, b.Message, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ProviderClient calls a GoTrue compatible auth REST API.
type ProviderClient struct {
	http *resty.Client
}

func NewProviderClient(baseURL, anonKey string, timeout time.Duration) *ProviderClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProviderClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")+"/auth/v1").
			SetHeader("apikey", anonKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

func (p *ProviderClient) do(ctx context.Context, req *resty.Request, method, path string) error {
	var eb providerErrBody
	resp, err := req.SetContext(ctx).SetError(&eb).Execute(method, path)
	if err != nil {
		return fmt.Errorf("auth provider: %w", err)
	}
	if resp.IsError() {
		msg := eb.text()
		if msg == "" {
			msg = resp.String()
		}
		return &ProviderError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

// SignUp registers an account. Providers that confirm by email return only the
// user; others also return a session.
func (p *ProviderClient) SignUp(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User
		Session
	}
	req := p.http.R().
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out)
	if err := p.do(ctx, req, resty.MethodPost, "/signup"); err != nil {
		return nil, err
	}
	u := out.User
	if u.ID == "" {
		u = out.Session.User
	}
	if u.ID == "" {
		return nil, &ProviderError{Status: 400, Message: "Failed to create user"}
	}
	return &u, nil
}

func (p *ProviderClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	req := p.http.R().
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&s)
	if err := p.do(ctx, req, resty.MethodPost, "/token"); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, &ProviderError{Status: 401, Message: "Invalid credentials"}
	}
	return &s, nil
}

func (p *ProviderClient) SignOut(ctx context.Context, accessToken string) error {
	return p.do(ctx, p.http.R().SetAuthToken(accessToken), resty.MethodPost, "/logout")
}

func (p *ProviderClient) ResetPassword(ctx context.Context, email string) error {
	return p.do(ctx, p.http.R().SetBody(map[string]string{"email": email}), resty.MethodPost, "/recover")
}
