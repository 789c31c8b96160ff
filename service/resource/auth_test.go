package resource

import (
	"context"
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

func TestParseToken(t *testing.T) {
	cases := []struct {
		raw   string
		token string
		fail  bool
	}{
		{`"eyJ.a.b"`, "eyJ.a.b", false},
		{"eyJ.a.b\n", "eyJ.a.b", false},
		{`{"token":"eyJ.a.b"}`, "eyJ.a.b", false},
		{`{"expire":"x"}`, "", true},
		{`""`, "", true},
		{``, "", true},
	}
	for _, tc := range cases {
		token, err := parseToken([]byte(tc.raw))
		if tc.fail {
			assert.Error(t, err, tc.raw)
			continue
		}
		assert.NoError(t, err, tc.raw)
		assert.Equal(t, tc.token, token)
	}
}

func TestLogin(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("reader", "s3cret")
	auth := NewAuth(apiclient.New(srv.URL, tokenstore.NewMemory()), nil)
	ctx := context.Background()

	t.Run("JSONBody", func(t *testing.T) {
		token, err := auth.Login(ctx, "reader", "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.JSONEq(t, `{"login":"reader","password":"s3cret"}`, string(srv.Last().Body))
	})

	t.Run("PlainTextBody", func(t *testing.T) {
		srv.SetPlainTextLogin(true)
		defer srv.SetPlainTextLogin(false)

		token, err := auth.Login(ctx, "reader", "s3cret")
		require.NoError(t, err)
		assert.NotContains(t, token, `"`)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := auth.Login(ctx, "reader", "nope")
		assert.True(t, model.IsUnauthorized(err))
	})
}

func TestSession(t *testing.T) {
	srv := apitest.New(t)
	store := tokenstore.NewMemory()
	api := NewAPI(apiclient.New(srv.URL, store), nil)
	ctx := context.Background()
	req := model.RegisterRequest{Username: "brave-otter", Login: "otter", PasswordHash: "pa55word"}

	t.Run("SignUp", func(t *testing.T) {
		user, err := api.Session.SignUp(ctx, req, "reg-key-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1,"username":"brave-otter","login":"otter"}`, string(user))
		assert.True(t, api.Session.Authenticated())
		assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/v2/Users/CreateUser"))
		assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/v2/Auth/login"))

		reg := srv.Requests()[0]
		assert.Equal(t, "reg-key-1", reg.Header.Get(idempotency.Header))
		assert.JSONEq(t, `{"username":"brave-otter","login":"otter","passwordHash":"pa55word"}`, string(reg.Body))
	})

	t.Run("AuthorizedAfterSignUp", func(t *testing.T) {
		_, err := api.Authors.List(ctx, model.ListOptions{})
		require.NoError(t, err)
		token, _ := store.Get()
		assert.Equal(t, "Bearer "+token, srv.Last().Header.Get("Authorization"))
	})

	t.Run("DuplicateLogin", func(t *testing.T) {
		_, err := api.Session.SignUp(ctx, req, "")
		ne, ok := model.AsNormalized(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, ne.Status)
		assert.Equal(t, "login already taken", ne.Message)
	})

	t.Run("SignOutSignIn", func(t *testing.T) {
		require.NoError(t, api.Session.SignOut())
		assert.False(t, api.Session.Authenticated())

		require.NoError(t, api.Session.SignIn(ctx, "otter", "pa55word"))
		assert.True(t, api.Session.Authenticated())
	})

	t.Run("FailedSignInKeepsStoreEmpty", func(t *testing.T) {
		require.NoError(t, api.Session.SignOut())
		err := api.Session.SignIn(ctx, "otter", "wrong")
		assert.True(t, model.IsUnauthorized(err))
		assert.False(t, store.Has())
	})
}
