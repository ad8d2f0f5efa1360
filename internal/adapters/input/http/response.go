package http

import (
	"net/http"
	"time"

	"fishshop/internal/domain"
)

var (
	// Success response
	Success = Status{Code: http.StatusOK, Message: []string{"Success"}}
	// BadRequest response
	BadRequest = Status{Code: http.StatusBadRequest, Message: []string{"Sorry, Not responding because of incorrect syntax"}}
	// Unauthorized response
	Unauthorized = Status{Code: http.StatusUnauthorized, Message: []string{"Sorry, We are not able to process your request. Please try again"}}
	// Forbidden response
	Forbidden = Status{Code: http.StatusForbidden, Message: []string{"Sorry, Permission denied"}}
	// InternalServerError response
	InternalServerError = Status{Code: http.StatusInternalServerError, Message: []string{"Internal Server Error"}}
)

// ResponseBody struct - Generic HTTP response wrapper
type ResponseBody struct {
	Status Status      `json:"status,omitempty"`
	Data   interface{} `json:"data,omitempty"`

	CurrentPage *int   `json:"current_page,omitempty"`
	PerPage     *int   `json:"per_page,omitempty"`
	TotalItem   *int64 `json:"total_item,omitempty"`
}

// Status struct
type Status struct {
	Code    int      `json:"code,omitempty"`
	Message []string `json:"message,omitempty"`
}

type (
	// EventResponse struct - HTTP response DTO for one handled event
	EventResponse struct {
		SessionKey string             `json:"session_key"`
		State      string             `json:"state"`
		Directives []domain.Directive `json:"directives"`
	}

	// OrderResponse struct - HTTP response DTO for a single order
	OrderResponse struct {
		ID         *string    `json:"id,omitempty"`
		SessionKey *string    `json:"session_key,omitempty"`
		CustomerID *string    `json:"customer_id,omitempty"`
		Email      *string    `json:"email,omitempty"`
		Total      *string    `json:"total,omitempty"`
		CreatedAt  *time.Time `json:"created_at,omitempty"`
	}

	// OrderListResponse struct - HTTP response DTO for order list
	OrderListResponse struct {
		Orders []OrderResponse `json:"orders,omitempty"`

		CurrentPage *int   `json:"current_page,omitempty"`
		PerPage     *int   `json:"per_page,omitempty"`
		TotalItem   *int64 `json:"total_item,omitempty"`
	}
)
