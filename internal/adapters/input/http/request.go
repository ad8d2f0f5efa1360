package http

type (
	// EventRequest struct - HTTP request DTO for one normalized
	// transport event
	EventRequest struct {
		SessionKey string `json:"session_key" validate:"required"`
		Kind       string `json:"kind" validate:"required,oneof=text button_press command"`
		Payload    string `json:"payload" validate:"required"`
	}

	// QueryOrderRequest struct - HTTP query request DTO
	QueryOrderRequest struct {
		SessionKey *string `json:"session_key" form:"session_key" query:"session_key"`
		Email      *string `json:"email" validate:"omitempty,email" form:"email" query:"email"`

		Limit   *int    `json:"limit,omitempty" form:"limit" query:"limit" validate:"omitempty,gte=1,lte=100"`
		Page    *int    `json:"page,omitempty" form:"page" query:"page" validate:"omitempty,gte=1"`
		OrderBy *string `json:"order_by,omitempty" form:"order_by" query:"order_by"`
		Asc     *bool   `json:"asc,omitempty" form:"asc" query:"asc"`
	}
)
