package input

import "fishshop/internal/domain"

// OrderService interface - Input port (use case)
// Read access to recorded orders
type OrderService interface {
	GetOrder(condition domain.QueryOrderRequest) (*domain.OrderListResponse, error)
}
