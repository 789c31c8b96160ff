package apiclient

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/logger"
	"github.com/shelfhq/shelf/pkg/tokenstore"
	"github.com/shelfhq/shelf/pkg/utils"
)

// RequestDecorator adjusts an outgoing request. A non-nil error aborts the
// call before anything is sent.
type RequestDecorator func(*http.Request) error

// ResponseNormalizer sees the response (nil when none arrived), its body and
// the error produced so far, and returns the error to pass on.
type ResponseNormalizer func(resp *http.Response, body []byte, err error) error

func JSONContentType(req *http.Request) error {
	req.Header.Set("Content-Type", "application/json")
	return nil
}

// BearerFrom sets the Authorization header whenever store holds a token.
func BearerFrom(store tokenstore.Store) RequestDecorator {
	return func(req *http.Request) error {
		if store == nil {
			return nil
		}
		if token, ok := store.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// Header sets a fixed header on every request.
func Header(key, value string) RequestDecorator {
	return func(req *http.Request) error {
		req.Header.Set(key, value)
		return nil
	}
}

// RejectNonSuccess turns a non-2xx response into a NormalizedError carrying
// the server's message field when there is one.
func RejectNonSuccess(resp *http.Response, body []byte, err error) error {
	if err != nil || resp == nil {
		return err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := utils.GjsonString(body, "message")
	return model.NewRejectedError(resp.StatusCode, msg, body)
}

func (c *Client) evictOnUnauthorized(_ *http.Response, _ []byte, err error) error {
	if !model.IsUnauthorized(err) || c.store == nil {
		return err
	}
	if rmErr := c.store.Remove(); rmErr != nil {
		c.log.Warn("evict credential", zap.Error(rmErr))
	} else {
		c.log.Warn("credential rejected, removed", logger.Status(http.StatusUnauthorized))
	}
	return err
}
