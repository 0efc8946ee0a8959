// pkg/models/api.go
package models

// ValidationErrorResponse is the Laravel-style validation failure body.
type ValidationErrorResponse struct {
	Message string              `json:"message" example:"Validation failed"`
	Errors  map[string][]string `json:"errors"`
}

// ErrorResponse is the generic error body (401/403/404/409/500).
type ErrorResponse struct {
	Error   bool   `json:"error" example:"true"`
	Message string `json:"message" example:"Not Found"`
	Code    string `json:"code,omitempty" example:"NOT_FOUND"`
}

// Page is the list envelope shared by every paginated route.
type Page[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
	Items    []T   `json:"items"`
}

// NameValue is one slice of a categorical breakdown.
type NameValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Deleted"`
}
