package resource

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/idempotency"
	"github.com/shelfhq/shelf/pkg/utils"
	"github.com/shelfhq/shelf/service/apiclient"
)

var errNoToken = errors.New("login response carried no token")

type Auth struct {
	client *apiclient.Client
	keys   idempotency.Generator
}

func NewAuth(client *apiclient.Client, keys idempotency.Generator) *Auth {
	if keys == nil {
		keys = idempotency.NewTimestamp()
	}
	return &Auth{client: client, keys: keys}
}

// Login exchanges credentials for a bearer token. The backend answers with
// the token as a JSON string; a bare text body or a {"token": ...} object is
// accepted too.
func (a *Auth) Login(ctx context.Context, login, password string) (string, error) {
	var raw []byte
	err := a.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   apiclient.APIPrefix + "/Auth/login",
		Body:   model.LoginRequest{Login: login, Password: password},
	}, &raw)
	if err != nil {
		return "", err
	}

	token, err := parseToken(raw)
	if err != nil {
		return "", model.NewMalformedError(err)
	}
	return token, nil
}

func parseToken(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	var token string
	switch {
	case len(raw) == 0:
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &token); err != nil {
			return "", err
		}
	case raw[0] == '{':
		token, _ = utils.GjsonString(raw, "token")
	default:
		token = string(raw)
	}
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

// Register creates a user account. The raw password travels in the
// passwordHash field, which is what the backend expects.
func (a *Auth) Register(ctx context.Context, req model.RegisterRequest, key string) (json.RawMessage, error) {
	var out json.RawMessage
	err := a.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   apiclient.APIPrefix + "/Users/CreateUser",
		Header: http.Header{idempotency.Header: {idempotency.KeyOr(a.keys, key)}},
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
