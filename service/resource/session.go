package resource

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/tokenstore"
)

// Session keeps the token store in step with login, registration and logout.
type Session struct {
	auth  *Auth
	store tokenstore.Store
}

func NewSession(auth *Auth, store tokenstore.Store) *Session {
	return &Session{auth: auth, store: store}
}

func (s *Session) SignIn(ctx context.Context, login, password string) error {
	token, err := s.auth.Login(ctx, login, password)
	if err != nil {
		return err
	}
	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// SignUp registers the user and then signs in with the same credentials.
func (s *Session) SignUp(ctx context.Context, req model.RegisterRequest, key string) (json.RawMessage, error) {
	user, err := s.auth.Register(ctx, req, key)
	if err != nil {
		return nil, err
	}
	if err := s.SignIn(ctx, req.Login, req.PasswordHash); err != nil {
		return user, err
	}
	return user, nil
}

func (s *Session) SignOut() error {
	return s.store.Remove()
}

func (s *Session) Authenticated() bool {
	return s.store.Has()
}
