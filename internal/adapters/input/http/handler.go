package http

import (
	"fishshop/internal/domain"
	"fishshop/internal/ports/input"
	"fishshop/pkg/validator"

	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// HTTPHandler struct - Primary/Driving adapter for the order HTTP API
type HTTPHandler struct {
	srv       input.OrderService
	db        *gorm.DB
	validator validator.Validator
}

// New func - Creates new HTTP handler
func New(srv input.OrderService, db *gorm.DB) *HTTPHandler {
	return &HTTPHandler{
		srv:       srv,
		db:        db,
		validator: validator.New(),
	}
}

// HealthCheck func
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	sqlDB, err := hdl.db.DB()
	if err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
	}

	err = sqlDB.Ping()
	if err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: ""})
}

// GetOrder func
// @Summary Get orders
// @Description List recorded orders with filtering and pagination
// @Tags ORDER
// @Accept application/json
// @Success 200 {object} map[string]interface{}
// @Router /v1/api/order [get]
// @Produce json
func (hdl *HTTPHandler) GetOrder(c *fiber.Ctx) error {
	var request QueryOrderRequest
	if err := c.QueryParser(&request); err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	if err := hdl.validator.ValidateStruct(request); err != nil {
		msg := ResponseBody{
			Status: BadRequest,
		}
		msg.Status.Message = []string{
			err.Error(),
		}
		return c.Status(fiber.StatusBadRequest).JSON(msg)
	}

	domainReq := domain.QueryOrderRequest{
		SessionKey: request.SessionKey,
		Email:      request.Email,
		Limit:      request.Limit,
		Page:       request.Page,
		OrderBy:    request.OrderBy,
		Asc:        request.Asc,
	}
	id := c.Params("id")
	if id != "" {
		domainReq.ID = &id
	}

	response, err := hdl.srv.GetOrder(domainReq)
	if err != nil {
		logrus.Errorln(err)
		msg := ResponseBody{
			Status: InternalServerError,
		}
		msg.Status.Message = []string{
			err.Error(),
		}
		return c.Status(fiber.StatusInternalServerError).JSON(msg)
	}

	orders := make([]OrderResponse, 0, len(response.Orders))
	for _, order := range response.Orders {
		orders = append(orders, OrderResponse{
			ID:         order.ID,
			SessionKey: order.SessionKey,
			CustomerID: order.CustomerID,
			Email:      order.Email,
			Total:      order.Total,
			CreatedAt:  order.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(ResponseBody{
		Status:      Success,
		Data:        OrderListResponse{Orders: orders},
		CurrentPage: response.CurrentPage,
		PerPage:     response.PerPage,
		TotalItem:   response.TotalItem,
	})
}
