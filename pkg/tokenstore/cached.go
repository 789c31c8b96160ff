package tokenstore

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached serves reads from memory and writes through to a durable store.
// Absence is cached too, so a missing credential costs one backend read per
// TTL window.
type Cached struct {
	backend Store
	cache   *cache.Cache
}

func NewCached(backend Store, ttl time.Duration) *Cached {
	return &Cached{
		backend: backend,
		cache:   cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Save(token string) error {
	if err := c.backend.Save(token); err != nil {
		c.cache.Delete(Key)
		return err
	}
	c.cache.SetDefault(Key, token)
	return nil
}

func (c *Cached) Get() (string, bool) {
	if v, ok := c.cache.Get(Key); ok {
		token := v.(string)
		return token, token != ""
	}
	token, ok := c.backend.Get()
	c.cache.SetDefault(Key, token)
	return token, ok
}

// Remove clears the cached value even if the backend write fails, so the
// process stops sending the credential right away.
func (c *Cached) Remove() error {
	c.cache.SetDefault(Key, "")
	return c.backend.Remove()
}

func (c *Cached) Has() bool {
	_, ok := c.Get()
	return ok
}

func (c *Cached) Backend() Store {
	return c.backend
}
