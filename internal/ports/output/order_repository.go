package output

import "fishshop/internal/domain"

// OrderRepository interface - Output port
// Defines what the application needs for order record keeping
type OrderRepository interface {
	CreateOrder(request domain.OrderRequest) (*domain.OrderResponse, error)
	GetOrder(condition domain.QueryOrderRequest) (*domain.OrderListResponse, error)
}
