package http

import (
	"crypto/subtle"

	"fishshop/internal/domain"
	"fishshop/internal/ports/input"
	"fishshop/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// webhookTokenHeader carries the shared secret the transport presents
const webhookTokenHeader = "X-Webhook-Token"

// EventHandler struct - Primary/Driving adapter for normalized
// transport events
type EventHandler struct {
	service      input.DialogService
	webhookToken string
	validator    validator.Validator
}

// NewEventHandler func - Creates new event handler
func NewEventHandler(service input.DialogService, webhookToken string) *EventHandler {
	return &EventHandler{
		service:      service,
		webhookToken: webhookToken,
		validator:    validator.New(),
	}
}

// HandleEvent func - Handles one normalized event from the messaging
// transport and returns the directives it should render
// @Summary Transport event webhook
// @Description Consumes a normalized chat event and returns response directives
// @Tags Events
// @Accept application/json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /webhook/events [post]
func (h *EventHandler) HandleEvent(c *fiber.Ctx) error {
	if h.webhookToken != "" {
		presented := c.Get(webhookTokenHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.webhookToken)) != 1 {
			logrus.Warn("Rejected event with missing or wrong webhook token")
			return c.Status(fiber.StatusUnauthorized).JSON(ResponseBody{Status: Unauthorized})
		}
	}

	var request EventRequest
	if err := c.BodyParser(&request); err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	if err := h.validator.ValidateStruct(request); err != nil {
		msg := ResponseBody{
			Status: BadRequest,
		}
		msg.Status.Message = []string{
			err.Error(),
		}
		return c.Status(fiber.StatusBadRequest).JSON(msg)
	}

	event := domain.Event{
		SessionKey: request.SessionKey,
		Kind:       domain.EventKind(request.Kind),
		Payload:    request.Payload,
	}

	response, err := h.service.HandleEvent(c.Context(), event)
	if err != nil {
		logrus.Errorf("Failed to handle event for session %s: %v", request.SessionKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
	}

	return c.Status(fiber.StatusOK).JSON(ResponseBody{
		Status: Success,
		Data: EventResponse{
			SessionKey: response.SessionKey,
			State:      string(response.State),
			Directives: response.Directives,
		},
	})
}
