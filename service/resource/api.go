package resource

import (
	"github.com/shelfhq/shelf/pkg/idempotency"
	"github.com/shelfhq/shelf/service/apiclient"
)

// API groups the resource clients that share one HTTP client.
type API struct {
	Auth    *Auth
	Session *Session
	Authors *Authors
	Books   *Books
}

func NewAPI(client *apiclient.Client, keys idempotency.Generator) *API {
	auth := NewAuth(client, keys)
	return &API{
		Auth:    auth,
		Session: NewSession(auth, client.Store()),
		Authors: NewAuthors(client, keys),
		Books:   NewBooks(client, keys),
	}
}
