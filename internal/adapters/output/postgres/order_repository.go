package postgres

import (
	"errors"
	"fishshop/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OrderRepository struct - Secondary/Driven adapter for PostgreSQL
type OrderRepository struct {
	dbGorm *gorm.DB
}

// NewOrderRepository func - Creates new PostgreSQL repository
func NewOrderRepository(dbGorm *gorm.DB) *OrderRepository {
	logrus.Info("Migrate database ...")
	domain.MigrateDatabase(dbGorm)
	return &OrderRepository{
		dbGorm: dbGorm,
	}
}

// CreateOrder func - Records a confirmed checkout in the database
func (p *OrderRepository) CreateOrder(request domain.OrderRequest) (*domain.OrderResponse, error) {
	var response domain.OrderResponse

	if request.SessionKey == nil || request.CustomerID == nil || request.Email == nil {
		return &response, errors.New("session key, customer id and email are required")
	}

	order := domain.Order{
		SessionKey: request.SessionKey,
		CustomerID: request.CustomerID,
		Email:      request.Email,
		Total:      request.Total,
	}
	if err := p.dbGorm.Create(&order).Error; err != nil {
		logrus.Errorln(err)
		return &response, err
	}

	response = p.toResponse(order)
	return &response, nil
}

func (p *OrderRepository) toResponse(order domain.Order) domain.OrderResponse {
	var id *string
	if order.ID != nil {
		s := order.ID.String()
		id = &s
	}
	return domain.OrderResponse{
		ID:         id,
		SessionKey: order.SessionKey,
		CustomerID: order.CustomerID,
		Email:      order.Email,
		Total:      order.Total,
		CreatedAt:  order.CreatedAt,
	}
}

func (p *OrderRepository) condition(condition domain.QueryOrderRequest) (map[string]interface{}, error) {
	expression := make(map[string]interface{})
	if condition.ID != nil {
		id, err := uuid.Parse(*condition.ID)
		if err != nil {
			return nil, err
		}
		expression["id"] = id
	}
	if condition.SessionKey != nil {
		expression["session_key"] = *condition.SessionKey
	}
	if condition.Email != nil {
		expression["email"] = *condition.Email
	}
	return expression, nil
}

// GetOrder func - Retrieves order(s) from the database with filtering
// and pagination
func (p *OrderRepository) GetOrder(condition domain.QueryOrderRequest) (*domain.OrderListResponse, error) {
	var (
		order  domain.Order
		orders []domain.Order
	)
	cond, err := p.condition(condition)
	if err != nil {
		logrus.Errorln(err)
		return nil, err
	}
	tx := p.dbGorm.Where(cond)

	var totalItem int64
	tx.Model(&order).Count(&totalItem)

	if condition.Pagination != nil {
		tx = tx.Limit(condition.Pagination.Limit).Offset(condition.Pagination.Offset)
	}
	if condition.SortMethod != nil {
		direction := "ASC"
		if !condition.SortMethod.Asc {
			direction = "DESC"
		}
		tx = tx.Order(condition.SortMethod.OrderBy + " " + direction)
	}

	if err := tx.Find(&orders).Error; err != nil {
		logrus.Errorln(err)
		return nil, err
	}

	response := domain.OrderListResponse{
		Orders:      make([]domain.OrderResponse, 0, len(orders)),
		CurrentPage: condition.Page,
		PerPage:     condition.Limit,
		TotalItem:   &totalItem,
	}
	for _, record := range orders {
		response.Orders = append(response.Orders, p.toResponse(record))
	}

	return &response, nil
}
