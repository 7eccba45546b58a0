package registration

import (
	"context"
	"net/http"
	"strings"

	"github.com/initializ/glewlwyd-console/api"
)

// Remote is the registration API consumed by Flow.
type Remote interface {
	Config(ctx context.Context) (*Config, error)
	Profile(ctx context.Context) (*Profile, error)
	SchemeStatus(ctx context.Context) (SchemeMap, error)
	CheckUsername(ctx context.Context, username string) error
	Register(ctx context.Context, username string) error
	UpdateProfile(ctx context.Context, p Profile) error
	SetPassword(ctx context.Context, password string) error
	SendVerification(ctx context.Context, req VerificationRequest) error
	VerifyCode(ctx context.Context, req VerifyRequest) error
	Complete(ctx context.Context) error
	Cancel(ctx context.Context) error
}

// VerificationRequest asks the server to e-mail a one-time code.
type VerificationRequest struct {
	Username    string
	Email       string
	Lang        string
	CallbackURL string
}

// VerifyRequest confirms a one-time code.
type VerifyRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Code     string `json:"code"`
}

// HTTPRemote implements Remote on the registration plugin endpoints.
type HTTPRemote struct {
	client *api.Client
	base   string
}

// NewHTTPRemote returns a Remote rooted at /{plugin} on client.
func NewHTTPRemote(client *api.Client, plugin string) *HTTPRemote {
	return &HTTPRemote{client: client, base: "/" + strings.Trim(plugin, "/")}
}

func (r *HTTPRemote) Config(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := r.client.Do(ctx, http.MethodGet, r.base+"/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *HTTPRemote) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := r.client.Do(ctx, http.MethodGet, r.base+"/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *HTTPRemote) SchemeStatus(ctx context.Context) (SchemeMap, error) {
	m := SchemeMap{}
	if err := r.client.Do(ctx, http.MethodGet, r.base+"/profile/scheme", nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *HTTPRemote) CheckUsername(ctx context.Context, username string) error {
	return r.client.Do(ctx, http.MethodPost, r.base+"/username", map[string]string{"username": username}, nil)
}

func (r *HTTPRemote) Register(ctx context.Context, username string) error {
	return r.client.Do(ctx, http.MethodPost, r.base+"/register", map[string]string{"username": username}, nil)
}

func (r *HTTPRemote) UpdateProfile(ctx context.Context, p Profile) error {
	return r.client.Do(ctx, http.MethodPut, r.base+"/profile", p, nil)
}

func (r *HTTPRemote) SetPassword(ctx context.Context, password string) error {
	return r.client.Do(ctx, http.MethodPost, r.base+"/profile/password", map[string]string{"password": password}, nil)
}

func (r *HTTPRemote) SendVerification(ctx context.Context, req VerificationRequest) error {
	body := map[string]any{
		"username":     req.Username,
		"email":        req.Email,
		"lang":         req.Lang,
		"callback_url": false,
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}
	return r.client.Do(ctx, http.MethodPut, r.base+"/verify", body, nil)
}

func (r *HTTPRemote) VerifyCode(ctx context.Context, req VerifyRequest) error {
	return r.client.Do(ctx, http.MethodPost, r.base+"/verify", req, nil)
}

func (r *HTTPRemote) Complete(ctx context.Context) error {
	return r.client.Do(ctx, http.MethodPost, r.base+"/profile/complete", nil, nil)
}

func (r *HTTPRemote) Cancel(ctx context.Context) error {
	return r.client.Do(ctx, http.MethodDelete, r.base+"/profile", nil, nil)
}
