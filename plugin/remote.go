package plugin

import (
	"context"
	"net/http"
	"net/url"

	"github.com/initializ/glewlwyd-console/api"
)

// Remote is the admin plugin API used by the editor.
type Remote interface {
	Get(ctx context.Context, name string) (*Entity, error)
	Create(ctx context.Context, e Entity) error
	Update(ctx context.Context, e Entity) error
	Types(ctx context.Context) ([]ModType, error)
}

// HTTPRemote implements Remote on the /mod endpoints.
type HTTPRemote struct {
	client *api.Client
}

// NewHTTPRemote returns a Remote using client.
func NewHTTPRemote(client *api.Client) *HTTPRemote {
	return &HTTPRemote{client: client}
}

func (r *HTTPRemote) Get(ctx context.Context, name string) (*Entity, error) {
	var e Entity
	if err := r.client.Do(ctx, http.MethodGet, "/mod/plugin/"+url.PathEscape(name), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *HTTPRemote) Create(ctx context.Context, e Entity) error {
	return r.client.Do(ctx, http.MethodPost, "/mod/plugin/", e, nil)
}

func (r *HTTPRemote) Update(ctx context.Context, e Entity) error {
	return r.client.Do(ctx, http.MethodPut, "/mod/plugin/"+url.PathEscape(e.Name), e, nil)
}

func (r *HTTPRemote) Types(ctx context.Context) ([]ModType, error) {
	var types []ModType
	if err := r.client.Do(ctx, http.MethodGet, "/mod/type/", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}
