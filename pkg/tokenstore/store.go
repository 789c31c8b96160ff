// Package tokenstore holds the single bearer credential the API client sends.
//
// Every Store keeps at most one token under Key. Has reports presence only;
// nothing here tracks expiry. Saving an empty token is the same as Remove.
package tokenstore

import (
	"fmt"
	"time"

	"github.com/shelfhq/shelf/model"
)

const Key = "jwt_token"

type Store interface {
	Save(token string) error
	Get() (string, bool)
	Remove() error
	Has() bool
}

// Open builds the store selected by the config. Durable stores are wrapped
// in a Cached store so reads on the request path stay in memory.
func Open(conf *model.Config) (Store, error) {
	switch conf.TokenStore {
	case model.TokenStoreMemory:
		return NewMemory(), nil
	case model.TokenStoreSQLite:
		s, err := OpenSQLite(conf.TokenPath)
		if err != nil {
			return nil, err
		}
		return NewCached(s, DefaultCacheTTL), nil
	case model.TokenStoreFile, "":
		return NewCached(NewFile(conf.TokenPath), DefaultCacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", conf.TokenStore)
	}
}

const DefaultCacheTTL = 30 * time.Second
