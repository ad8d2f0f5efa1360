package domain

import "time"

// DTOs (Data Transfer Objects) - Domain layer request/response structures

type (
	// EventRequest struct - Domain request DTO for one normalized
	// transport event
	EventRequest struct {
		SessionKey string    `json:"session_key"`
		Kind       EventKind `json:"kind"`
		Payload    string    `json:"payload"`
	}

	// EventResponse struct - Domain response DTO: the directives the
	// transport should render plus the state the session ended in
	EventResponse struct {
		SessionKey string       `json:"session_key"`
		State      SessionState `json:"state"`
		Directives []Directive  `json:"directives"`
	}

	// OrderRequest struct - Domain request DTO for recording an order
	OrderRequest struct {
		SessionKey *string `json:"session_key"`
		CustomerID *string `json:"customer_id"`
		Email      *string `json:"email"`
		Total      *string `json:"total"`
	}

	// QueryOrderRequest struct - Domain query request DTO
	QueryOrderRequest struct {
		ID         *string
		SessionKey *string
		Email      *string

		Limit      *int
		Page       *int
		OrderBy    *string
		Asc        *bool
		Pagination *Pagination
		SortMethod *SortMethod
	}

	// Pagination struct
	Pagination struct {
		Limit  int
		Offset int
	}

	// SortMethod struct
	SortMethod struct {
		Asc     bool
		OrderBy string
	}

	// OrderResponse struct - Domain response DTO
	OrderResponse struct {
		ID         *string    `json:"id,omitempty"`
		SessionKey *string    `json:"session_key,omitempty"`
		CustomerID *string    `json:"customer_id,omitempty"`
		Email      *string    `json:"email,omitempty"`
		Total      *string    `json:"total,omitempty"`
		CreatedAt  *time.Time `json:"created_at,omitempty"`
	}

	// OrderListResponse struct - Domain list response DTO
	OrderListResponse struct {
		Orders      []OrderResponse
		CurrentPage *int
		PerPage     *int
		TotalItem   *int64
	}
)
