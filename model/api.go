package model

import "strings"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RegisterRequest is the body of Users/CreateUser. The backend expects the
// plain password in PasswordHash and hashes it server side.
type RegisterRequest struct {
	Username     string `json:"username"`
	Login        string `json:"login"`
	PasswordHash string `json:"passwordHash"`
}

type PagedResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// Fill copies request-time paging values into fields the server left unset.
func (p *PagedResult[T]) Fill(opts ListOptions) {
	if p.Page == 0 {
		p.Page = opts.Page
	}
	if p.PageSize == 0 {
		p.PageSize = opts.PageSize
	}
}

// HasNext reports whether a page after the current one exists.
func (p *PagedResult[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

type ListOptions struct {
	Page     int
	PageSize int
	Include  []string
}

// Normalize applies the default page and page size.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	return o
}

// IncludeParam joins Include for the query string; empty means omit.
func (o ListOptions) IncludeParam() string {
	return JoinInclude(o.Include)
}

func JoinInclude(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ",")
}
