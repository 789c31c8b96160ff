package apitest

import (
	"maps"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/idempotency"
)

// collection is a paged CRUD table of free-form JSON objects keyed by id.
type collection struct {
	name string

	mu    sync.Mutex
	next  uint64
	items map[uint64]map[string]any
	keys  map[string]uint64

	omitPaging func() bool
}

func newCollection(name string) *collection {
	return &collection{
		name:  name,
		items: make(map[uint64]map[string]any),
		keys:  make(map[string]uint64),
	}
}

func (col *collection) mount(g *gin.RouterGroup) {
	g.GET("", col.list)
	g.POST("", col.create)
	g.GET("/:id", col.get)
	g.PUT("/:id", col.update)
	g.DELETE("/:id", col.delete)
}

func (col *collection) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": col.name + " not found"})
}

func (col *collection) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if page < 1 || pageSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "page and pageSize must be positive"})
		return
	}

	col.mu.Lock()
	ids := slices.Sorted(maps.Keys(col.items))
	items := make([]map[string]any, 0, pageSize)
	for i := (page - 1) * pageSize; i < len(ids) && len(items) < pageSize; i++ {
		items = append(items, col.items[ids[i]])
	}
	total := len(ids)
	col.mu.Unlock()

	resp := gin.H{
		"items":      items,
		"totalCount": total,
		"totalPages": (total + pageSize - 1) / pageSize,
	}
	if col.omitPaging == nil || !col.omitPaging() {
		resp["page"] = page
		resp["pageSize"] = pageSize
	}
	c.JSON(http.StatusOK, resp)
}

func (col *collection) lookup(c *gin.Context) (uint64, map[string]any, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, nil, false
	}
	col.mu.Lock()
	item, ok := col.items[id]
	col.mu.Unlock()
	if !ok {
		col.notFound(c)
		return 0, nil, false
	}
	return id, item, true
}

func (col *collection) get(c *gin.Context) {
	if _, item, ok := col.lookup(c); ok {
		c.JSON(http.StatusOK, item)
	}
}

func decodeObject(c *gin.Context) (map[string]any, bool) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "body must be a JSON object"})
		return nil, false
	}
	return obj, true
}

func (col *collection) create(c *gin.Context) {
	obj, ok := decodeObject(c)
	if !ok {
		return
	}
	key := c.GetHeader(idempotency.Header)

	col.mu.Lock()
	defer col.mu.Unlock()
	if id, ok := col.keys[key]; ok && key != "" {
		c.JSON(http.StatusOK, col.items[id])
		return
	}

	col.next++
	obj["id"] = col.next
	col.items[col.next] = obj
	if key != "" {
		col.keys[key] = col.next
	}
	c.JSON(http.StatusCreated, obj)
}

func (col *collection) update(c *gin.Context) {
	id, _, ok := col.lookup(c)
	if !ok {
		return
	}
	obj, ok := decodeObject(c)
	if !ok {
		return
	}
	obj["id"] = id

	col.mu.Lock()
	col.items[id] = obj
	col.mu.Unlock()
	c.JSON(http.StatusOK, obj)
}

func (col *collection) delete(c *gin.Context) {
	id, _, ok := col.lookup(c)
	if !ok {
		return
	}
	col.mu.Lock()
	delete(col.items, id)
	col.mu.Unlock()
	c.Status(http.StatusNoContent)
}

// Seed stores entities as if they had been created, returning their ids.
func seed[T any](col *collection, entities ...T) []uint64 {
	ids := make([]uint64, 0, len(entities))
	for _, e := range entities {
		data, err := json.Marshal(e)
		if err != nil {
			panic(err)
		}
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			panic(err)
		}

		col.mu.Lock()
		col.next++
		obj["id"] = col.next
		col.items[col.next] = obj
		ids = append(ids, col.next)
		col.mu.Unlock()
	}
	return ids
}

func (s *Server) SeedAuthors(forms ...model.AuthorForm) []uint64 {
	return seed(s.authors, forms...)
}

func (s *Server) SeedBooks(forms ...model.BookForm) []uint64 {
	return seed(s.books, forms...)
}
