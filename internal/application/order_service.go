package application

import (
	"fishshop/internal/domain"
	"fishshop/internal/ports/output"
)

// OrderService struct - Application service implementing order use cases
type OrderService struct {
	repo output.OrderRepository
}

// NewOrderService func - Creates new order service
func NewOrderService(repo output.OrderRepository) *OrderService {
	return &OrderService{
		repo: repo,
	}
}

// GetOrder func - Use case: Get order(s) with pagination and filtering
func (s *OrderService) GetOrder(condition domain.QueryOrderRequest) (*domain.OrderListResponse, error) {
	var (
		page    int
		perPage int
		offset  int
	)
	if condition.Page != nil {
		page = *condition.Page
	} else {
		page = 1
		condition.Page = &page
	}
	if condition.Limit != nil {
		perPage = *condition.Limit
	} else {
		perPage = 100
		condition.Limit = &perPage
	}
	offset = (page - 1) * perPage
	condition.Pagination = &domain.Pagination{
		Limit:  perPage,
		Offset: offset,
	}
	asc := true
	if condition.Asc != nil {
		asc = *condition.Asc
	}
	if condition.OrderBy != nil {
		condition.SortMethod = &domain.SortMethod{
			Asc:     asc,
			OrderBy: *condition.OrderBy,
		}
	} else {
		condition.SortMethod = &domain.SortMethod{
			Asc:     asc,
			OrderBy: "created_at",
		}
	}
	return s.repo.GetOrder(condition)
}
