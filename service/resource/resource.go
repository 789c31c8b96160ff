// Package resource builds typed calls for each backend resource on top of
// apiclient. Errors from the client are returned unchanged.
package resource

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/idempotency"
	"github.com/shelfhq/shelf/pkg/utils"
	"github.com/shelfhq/shelf/service/apiclient"
)

// Resource is a paged CRUD collection of E created and replaced from F.
type Resource[E, F any] struct {
	client *apiclient.Client
	path   string
	keys   idempotency.Generator
}

func New[E, F any](client *apiclient.Client, name string, keys idempotency.Generator) *Resource[E, F] {
	if keys == nil {
		keys = idempotency.NewTimestamp()
	}
	return &Resource[E, F]{
		client: client,
		path:   apiclient.APIPrefix + "/" + name,
		keys:   keys,
	}
}

type (
	Authors = Resource[model.Author, model.AuthorForm]
	Books   = Resource[model.Book, model.BookForm]
)

func NewAuthors(client *apiclient.Client, keys idempotency.Generator) *Authors {
	return New[model.Author, model.AuthorForm](client, "Authors", keys)
}

func NewBooks(client *apiclient.Client, keys idempotency.Generator) *Books {
	return New[model.Book, model.BookForm](client, "Books", keys)
}

func (r *Resource[E, F]) Path() string {
	return r.path
}

func (r *Resource[E, F]) itemPath(id uint64) string {
	return r.path + "/" + utils.Itoa(id)
}

// List fetches one page. Page and page size default to 1 and 10; include is
// sent only when it names at least one field.
func (r *Resource[E, F]) List(ctx context.Context, opts model.ListOptions) (*model.PagedResult[E], error) {
	opts = opts.Normalize()
	q := url.Values{}
	q.Set("page", utils.Itoa(opts.Page))
	q.Set("pageSize", utils.Itoa(opts.PageSize))
	if inc := opts.IncludeParam(); inc != "" {
		q.Set("include", inc)
	}

	var page model.PagedResult[E]
	if err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: r.path, Query: q}, &page); err != nil {
		return nil, err
	}
	page.Fill(opts)
	return &page, nil
}

func (r *Resource[E, F]) GetByID(ctx context.Context, id uint64, include ...string) (*E, error) {
	var q url.Values
	if inc := model.JoinInclude(include); inc != "" {
		q = url.Values{"include": {inc}}
	}

	var e E
	if err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: r.itemPath(id), Query: q}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create posts form with key in the Idempotency-Key header, generating one
// when key is empty. Retries of the same create must pass the same key.
func (r *Resource[E, F]) Create(ctx context.Context, form F, key string) (*E, error) {
	key = idempotency.KeyOr(r.keys, key)

	var e E
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   r.path,
		Header: http.Header{idempotency.Header: {key}},
		Body:   form,
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the whole entity.
func (r *Resource[E, F]) Update(ctx context.Context, id uint64, form F) (*E, error) {
	var e E
	if err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPut, Path: r.itemPath(id), Body: form}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Resource[E, F]) Delete(ctx context.Context, id uint64) error {
	return r.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: r.itemPath(id)}, nil)
}
