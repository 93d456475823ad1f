package types

// ListOptions provides pagination options for list operations
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultPageSize is the number of rows returned per page when no limit is given.
const DefaultPageSize = 50

// PaginationResponse describes the page of results returned by a list endpoint
type PaginationResponse struct {
	Total  int `json:"total"`
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse is a generic list response with pagination metadata
type ListResponse[T any] struct {
	Rows       []T                `json:"rows"`
	Pagination PaginationResponse `json:"pagination"`
}

// Identity is the caller identity resolved by the identity provider.
// The orchestrator treats it as opaque: no token parsing happens here.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Roles known to the auth middleware.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)
