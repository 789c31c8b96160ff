package resource

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/apitest"
	"github.com/shelfhq/shelf/pkg/idempotency"
	"github.com/shelfhq/shelf/pkg/tokenstore"
	"github.com/shelfhq/shelf/service/apiclient"
)

func newAPI(t *testing.T) (*apitest.Server, *API, tokenstore.Store) {
	t.Helper()
	srv := apitest.New(t)
	store := tokenstore.NewMemory()
	require.NoError(t, store.Save(srv.Token("librarian")))
	return srv, NewAPI(apiclient.New(srv.URL, store), nil), store
}

func seedAuthors(srv *apitest.Server, n int) []uint64 {
	forms := make([]model.AuthorForm, n)
	for i := range forms {
		forms[i] = model.AuthorForm{Name: fmt.Sprintf("Name%d", i), Surname: fmt.Sprintf("Surname%d", i)}
	}
	return srv.SeedAuthors(forms...)
}

func TestList(t *testing.T) {
	srv, api, _ := newAPI(t)
	seedAuthors(srv, 12)
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		page, err := api.Authors.List(ctx, model.ListOptions{})
		require.NoError(t, err)
		q := srv.Last().Query
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "10", q.Get("pageSize"))
		assert.False(t, q.Has("include"))
		assert.Len(t, page.Items, 10)
		assert.True(t, page.HasNext())
	})

	t.Run("ExplicitPage", func(t *testing.T) {
		page, err := api.Authors.List(ctx, model.ListOptions{Page: 2, PageSize: 5, Include: []string{"books", " "}})
		require.NoError(t, err)
		last := srv.Last()
		assert.Equal(t, "include=books&page=2&pageSize=5", last.Query.Encode())
		assert.Equal(t, &model.PagedResult[model.Author]{
			Items:      page.Items,
			Page:       2,
			PageSize:   5,
			TotalCount: 12,
			TotalPages: 3,
		}, page)
		require.Len(t, page.Items, 5)
		assert.Equal(t, "Surname5", page.Items[0].Surname)
	})

	t.Run("EmptyIncludeOmitted", func(t *testing.T) {
		_, err := api.Authors.List(ctx, model.ListOptions{Include: []string{""}})
		require.NoError(t, err)
		assert.False(t, srv.Last().Query.Has("include"))
	})

	t.Run("FallbackPaging", func(t *testing.T) {
		srv.SetOmitPaging(true)
		defer srv.SetOmitPaging(false)

		page, err := api.Authors.List(ctx, model.ListOptions{Page: 3, PageSize: 4})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Page)
		assert.Equal(t, 4, page.PageSize)
		assert.Equal(t, 3, page.TotalPages)
	})
}

func TestGetByID(t *testing.T) {
	srv, api, _ := newAPI(t)
	ids := srv.SeedBooks(model.BookForm{Title: "Dark Avenues", Authors: []string{"Bunin"}, PublicationYear: 1943})
	ctx := context.Background()

	book, err := api.Books.GetByID(ctx, ids[0], "authors")
	require.NoError(t, err)
	assert.Equal(t, "Dark Avenues", book.Title)
	assert.Equal(t, []string{"Bunin"}, book.Authors)
	assert.Equal(t, fmt.Sprintf("/api/v2/Books/%d", ids[0]), srv.Last().Path)
	assert.Equal(t, "authors", srv.Last().Query.Get("include"))

	_, err = api.Books.GetByID(ctx, 999)
	ne, ok := model.AsNormalized(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, ne.Status)
	assert.Equal(t, "Book not found", ne.Message)
}

func TestCreate(t *testing.T) {
	srv, api, _ := newAPI(t)
	ctx := context.Background()
	form := model.AuthorForm{Name: "Anna", Surname: "Akhmatova"}

	t.Run("GeneratedKeys", func(t *testing.T) {
		_, err := api.Authors.Create(ctx, form, "")
		require.NoError(t, err)
		first := srv.Last().Header.Get(idempotency.Header)

		_, err = api.Authors.Create(ctx, form, "")
		require.NoError(t, err)
		second := srv.Last().Header.Get(idempotency.Header)

		assert.NotEmpty(t, first)
		assert.NotEmpty(t, second)
		assert.NotEqual(t, first, second)
		assert.NotContains(t, string(srv.Last().Body), second)
	})

	t.Run("ExplicitKey", func(t *testing.T) {
		const key = "1712345678901-abc123xyz"
		a, err := api.Authors.Create(ctx, form, key)
		require.NoError(t, err)
		assert.Equal(t, key, srv.Last().Header.Get(idempotency.Header))

		again, err := api.Authors.Create(ctx, form, key)
		require.NoError(t, err)
		assert.Equal(t, a.ID, again.ID)
	})

	t.Run("CustomGenerator", func(t *testing.T) {
		keys := idempotency.GeneratorFunc(func() string { return "fixed-key" })
		books := NewBooks(apiclient.New(srv.URL, tokenstoreWith(t, srv.Token("x"))), keys)
		_, err := books.Create(ctx, model.BookForm{Title: "Requiem"}, "")
		require.NoError(t, err)
		assert.Equal(t, "fixed-key", srv.Last().Header.Get(idempotency.Header))
	})
}

func tokenstoreWith(t *testing.T, token string) tokenstore.Store {
	s := tokenstore.NewMemory()
	require.NoError(t, s.Save(token))
	return s
}

func TestUpdateDelete(t *testing.T) {
	srv, api, _ := newAPI(t)
	ids := seedAuthors(srv, 1)
	ctx := context.Background()

	updated, err := api.Authors.Update(ctx, ids[0], model.AuthorForm{Name: "Lev", Surname: "Tolstoy", Bio: "novelist"})
	require.NoError(t, err)
	assert.Equal(t, ids[0], updated.ID)
	assert.Equal(t, "novelist", updated.Bio)
	assert.Equal(t, http.MethodPut, srv.Last().Method)
	assert.Empty(t, srv.Last().Header.Get(idempotency.Header))

	srv.Reset()
	require.NoError(t, api.Authors.Delete(ctx, ids[0]))
	path := fmt.Sprintf("/api/v2/Authors/%d", ids[0])
	assert.Equal(t, 1, srv.Count(http.MethodDelete, path))
	assert.Len(t, srv.Requests(), 1)

	_, err = api.Authors.GetByID(ctx, ids[0])
	assert.True(t, model.IsRejected(err))
}

func TestExpiredCredential(t *testing.T) {
	srv, api, store := newAPI(t)
	srv.Fail(http.MethodGet, "/api/v2/Authors", http.StatusUnauthorized, `{"message":"token expired"}`)

	_, err := api.Authors.List(context.Background(), model.ListOptions{})
	assert.True(t, model.IsUnauthorized(err))
	assert.Equal(t, "401: token expired", err.Error())
	assert.False(t, store.Has())
	assert.False(t, api.Session.Authenticated())
}
