package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fishshop/internal/domain"
	"fishshop/internal/ports/output"
	"fishshop/pkg/validator"

	"github.com/sirupsen/logrus"
)

// Texts shown to the user
const (
	menuPrompt      = "Please choose:"
	cartButtonLabel = "Cart"
	backButtonLabel = "Back to menu"
	emptyCartText   = "You don't have any items in your cart."
	emailPrompt     = "Please send your email address"
	emailRetryText  = "That doesn't look like a working email address. Please send it again"
	tryAgainText    = "Something went wrong. Please try again."
)

// defaultCustomerName is used when registering a customer; the chat
// transport does not supply a display name.
const defaultCustomerName = "Chat customer"

// quantityTiers are the kg amounts offered on the product detail view
var quantityTiers = []int{1, 5, 10}

// keyedMutex serializes work per session key so two events for the
// same conversation cannot race the store's read-modify-write.
// Different keys proceed concurrently.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for key and returns its unlock func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// DialogService struct - Application service implementing the
// conversation state machine. It resolves the session's current
// state from the store, dispatches to the state's handler and records
// the handler's returned next state.
type DialogService struct {
	commerce output.CommerceClient
	store    output.SessionStore
	orders   output.OrderRepository
	validate validator.Validator
	sessions *keyedMutex
}

// NewDialogService func - Creates new dialog service. The session
// store and commerce client are injected so tests can substitute
// doubles; the order repository records confirmed checkouts.
func NewDialogService(commerce output.CommerceClient, store output.SessionStore, orders output.OrderRepository) *DialogService {
	return &DialogService{
		commerce: commerce,
		store:    store,
		orders:   orders,
		validate: validator.New(),
		sessions: newKeyedMutex(),
	}
}

// HandleEvent func - Use case: Handle one normalized transport event.
// An explicit /start command forces the initial state before lookup; a
// missing or unrecognized stored state also resolves to the initial
// state. Handler errors are caught here: the state write is skipped so
// the session stays where it was, and the user is asked to retry.
func (s *DialogService) HandleEvent(ctx context.Context, event domain.Event) (*domain.EventResponse, error) {
	unlock := s.sessions.Lock(event.SessionKey)
	defer unlock()

	state, err := s.resolveState(ctx, event)
	if err != nil {
		return nil, err
	}

	directives, nextState, err := s.dispatch(ctx, state, event)
	if err != nil {
		logrus.Errorf("Handler failed: session=%s state=%s kind=%s payload=%q: %v",
			event.SessionKey, state, event.Kind, event.Payload, err)
		return &domain.EventResponse{
			SessionKey: event.SessionKey,
			State:      state,
			Directives: []domain.Directive{
				{Kind: domain.DirectiveSendText, Content: tryAgainText},
			},
		}, nil
	}

	logrus.Infof("Session %s: %s -> %s", event.SessionKey, state, nextState)

	if err := s.store.SetState(ctx, event.SessionKey, string(nextState)); err != nil {
		// The user already got the handler's output; the next event
		// will replay from the previous state.
		logrus.Errorf("Failed to record state: session=%s state=%s: %v", event.SessionKey, nextState, err)
	}

	return &domain.EventResponse{
		SessionKey: event.SessionKey,
		State:      nextState,
		Directives: directives,
	}, nil
}

// resolveState - Resolves the session's current state from the store
func (s *DialogService) resolveState(ctx context.Context, event domain.Event) (domain.SessionState, error) {
	if event.IsReset() {
		return domain.StateStart, nil
	}

	raw, err := s.store.GetState(ctx, event.SessionKey)
	if err != nil {
		return "", fmt.Errorf("failed to read session state: %w", err)
	}

	if raw == "" {
		// First event for this session
		return domain.StateStart, nil
	}

	state, err := domain.ParseSessionState(raw)
	if err != nil {
		// Routing fault: corrupted storage or version skew. Reset to
		// the initial state instead of stranding the session.
		logrus.Errorf("Routing fault: session=%s stored state %q not recognized, resetting", event.SessionKey, raw)
		return domain.StateStart, nil
	}

	return state, nil
}

// dispatch - Runs the handler for the resolved state. The state set is
// closed, so the default branch is unreachable short of a bug.
func (s *DialogService) dispatch(ctx context.Context, state domain.SessionState, event domain.Event) ([]domain.Directive, domain.SessionState, error) {
	switch state {
	case domain.StateStart:
		return s.sendMenu(ctx, event)
	case domain.StateHandleMenu:
		return s.handleMenu(ctx, event)
	case domain.StateHandleDescription:
		return s.handleDescription(ctx, event)
	case domain.StateHandleCart:
		return s.handleCart(ctx, event)
	case domain.StateWaitingEmail:
		return s.checkout(ctx, event)
	default:
		return nil, state, fmt.Errorf("%w: %q", domain.ErrUnknownState, state)
	}
}

// sendMenu - Renders the product menu with one button per product plus
// the cart affordance
func (s *DialogService) sendMenu(ctx context.Context, event domain.Event) ([]domain.Directive, domain.SessionState, error) {
	products, err := s.commerce.GetProducts(ctx)
	if err != nil {
		return nil, domain.StateStart, fmt.Errorf("failed to fetch product list: %w", err)
	}

	keyboard := make(domain.Keyboard, 0, len(products)+1)
	for _, product := range products {
		keyboard = append(keyboard, []domain.Button{
			{Label: product.Name, CallbackValue: product.ID},
		})
	}
	keyboard = append(keyboard, []domain.Button{
		{Label: cartButtonLabel, CallbackValue: "cart"},
	})

	var directives []domain.Directive
	if event.Kind == domain.EventKindButtonPress {
		// Navigating from an inline keyboard replaces the old message
		directives = append(directives, domain.Directive{Kind: domain.DirectiveDeleteMessage})
	}
	directives = append(directives, domain.Directive{
		Kind:     domain.DirectiveSendText,
		Content:  menuPrompt,
		Keyboard: keyboard,
	})

	logrus.Infof("Menu with %d products sent to session %s", len(products), event.SessionKey)

	return directives, domain.StateHandleMenu, nil
}

// handleMenu - Expects a product id or the cart affordance
func (s *DialogService) handleMenu(ctx context.Context, event domain.Event) ([]domain.Directive, domain.SessionState, error) {
	if event.Payload == "cart" {
		return s.sendCart(ctx, event, nil)
	}
	return s.sendProductDetail(ctx, event)
}

// sendProductDetail - Renders one product with quantity tier buttons
func (s *DialogService) sendProductDetail(ctx context.Context, event domain.Event) ([]domain.Directive, domain.SessionState, error) {
	productID := event.Payload

	product, err := s.commerce.GetProduct(ctx, productID)
	if err != nil {
		return nil, domain.StateHandleMenu, fmt.Errorf("failed to fetch product %s: %w", productID, err)
	}

	imageURL, err := s.commerce.GetImageURL(ctx, product.ImageID)
	if err != nil {
		return nil, domain.StateHandleMenu, fmt.Errorf("failed to resolve image for product %s: %w", productID, err)
	}

	caption := fmt.Sprintf("%s\n\n%s per kg\n%d on stock\n\n%s",
		product.Name, product.PriceFormatted, product.Availability, product.Description)

	tierRow := make([]domain.Button, 0, len(quantityTiers))
	for _, quantity := range quantityTiers {
		tierRow = append(tierRow, domain.Button{
			Label:         fmt.Sprintf("%d kg", quantity),
			CallbackValue: fmt.Sprintf("%s,%d", product.ID, quantity),
		})
	}
	keyboard := domain.Keyboard{
		tierRow,
		{{Label: backButtonLabel, CallbackValue: "menu"}},
	}

	directives := []domain.Directive{
		{Kind: domain.DirectiveDeleteMessage},
		{
			Kind:     domain.DirectiveSendPhoto,
			Content:  caption,
			PhotoURL: imageURL,
			Keyboard: keyboard,
		},
	}

	logrus.Infof("Product detail %s sent to session %s", product.Name, event.SessionKey)

	return directives, domain.StateHandleDescription, nil
}

// handleDescription - Expects "menu" or a "(product id, quantity)"
// composite payload. Adding to the cart is a self-loop so the user can
// stack more than one quantity tier before navigating away.
func (s *DialogService) handleDescription(ctx context.Context, event domain.Event) ([]domain.Directive, domain.SessionState, error) {
	if event.Payload == "menu" {
		return s.sendMenu(ctx, event)
	}

	productID, quantity, err := parseQuantityPayload(event.Payload)
	if err != nil {
		return nil, domain.StateHandleDescription, err
	}

	if err := s.commerce.AddCartItem(ctx, event.SessionKey, productID, quantity); err != nil {
		return nil, domain.StateHandleDescription, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}

	directives := []domain.Directive{
		{Kind: domain.DirectiveSendText, Content: fmt.Sprintf("%d kg added to cart", quantity)},
	}

	return directives, domain.StateHandleDescription, nil
}

// parseQuantityPayload splits a "<product-id>,<quantity>" callback
// value. Quantity must be a positive integer.
func parseQuantityPayload(payload string) (string, int, error) {
	productID, rawQuantity, found := strings.Cut(payload, ",")
	if !found {
		return "", 0, fmt.Errorf("malformed quantity payload %q", payload)
	}
	quantity, err := strconv.Atoi(rawQuantity)
	if err != nil {
		return "", 0, fmt.Errorf("malformed quantity in payload %q: %w", payload, err)
	}
	if quantity <= 0 {
		return "", 0, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	return productID, quantity, nil
}

// handleCart - Expects "menu", "checkout" or a cart item id to remove
func (s *DialogService) handleCart(ctx context.Context, event domain.Event) ([]domain.Directive, domain.SessionState, error) {
	switch event.Payload {
	case "menu":
		return s.sendMenu(ctx, event)

	case "checkout":
		directives := []domain.Directive{
			{Kind: domain.DirectiveEditText, Content: emailPrompt},
		}
		return directives, domain.StateWaitingEmail, nil

	default:
		cartItemID := event.Payload
		if err := s.commerce.RemoveCartItem(ctx, event.SessionKey, cartItemID); err != nil {
			return nil, domain.StateHandleCart, fmt.Errorf("failed to remove cart item %s: %w", cartItemID, err)
		}
		ack := domain.Directive{Kind: domain.DirectiveSendText, Content: "Removed from cart"}
		return s.sendCart(ctx, event, []domain.Directive{ack})
	}
}

// sendCart - Renders the cart view with per-item removal buttons.
// Directives in prefix are emitted ahead of the cart view.
func (s *DialogService) sendCart(ctx context.Context, event domain.Event, prefix []domain.Directive) ([]domain.Directive, domain.SessionState, error) {
	cart, err := s.commerce.GetCart(ctx, event.SessionKey)
	if err != nil {
		return nil, domain.StateHandleCart, fmt.Errorf("failed to fetch cart: %w", err)
	}

	keyboard := domain.Keyboard{
		{{Label: "Menu", CallbackValue: "menu"}},
	}

	var text string
	if len(cart.Items) > 0 {
		rows := make([]string, 0, len(cart.Items)+1)
		for _, item := range cart.Items {
			rows = append(rows, fmt.Sprintf("%s\n%s\n%s per kg\n%d kg in cart for %s",
				item.Name, item.Description, item.UnitPrice, item.Quantity, item.TotalPrice))
			keyboard = append(keyboard, []domain.Button{
				{Label: fmt.Sprintf("Remove %s", item.Name), CallbackValue: item.ID},
			})
		}
		rows = append(rows, fmt.Sprintf("Total: %s", cart.TotalPrice))
		text = strings.Join(rows, "\n\n")

		keyboard = append(keyboard, []domain.Button{
			{Label: "Checkout", CallbackValue: "checkout"},
		})
	} else {
		text = emptyCartText
	}

	directives := append(prefix, domain.Directive{
		Kind:     domain.DirectiveEditText,
		Content:  text,
		Keyboard: keyboard,
	})

	logrus.Infof("Cart with %d items sent to session %s", len(cart.Items), event.SessionKey)

	return directives, domain.StateHandleCart, nil
}

// checkout - Expects a free-text email. A malformed address or an
// upstream rejection re-prompts within the same state; a confirmed
// customer gets the session key as the order reference.
func (s *DialogService) checkout(ctx context.Context, event domain.Event) ([]domain.Directive, domain.SessionState, error) {
	email := strings.TrimSpace(event.Payload)

	if err := s.validate.ValidateVar(email, "required,email"); err != nil {
		logrus.Infof("Rejected malformed email from session %s", event.SessionKey)
		directives := []domain.Directive{
			{Kind: domain.DirectiveSendText, Content: emailRetryText},
		}
		return directives, domain.StateWaitingEmail, nil
	}

	customerID, err := s.commerce.GetOrCreateCustomer(ctx, defaultCustomerName, email)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamRejected) {
			// The platform refused the address for a reason other than
			// duplication; ask for it again.
			logrus.Infof("Platform rejected email from session %s: %v", event.SessionKey, err)
			directives := []domain.Directive{
				{Kind: domain.DirectiveSendText, Content: emailRetryText},
			}
			return directives, domain.StateWaitingEmail, nil
		}
		return nil, domain.StateWaitingEmail, fmt.Errorf("failed to register customer: %w", err)
	}

	s.recordOrder(ctx, event.SessionKey, customerID, email)

	if err := s.commerce.DeleteCart(ctx, event.SessionKey); err != nil {
		// The order is already confirmed; a leftover cart only means
		// the next session starts non-empty.
		logrus.Errorf("Failed to clear cart for session %s: %v", event.SessionKey, err)
	}

	directives := []domain.Directive{
		{Kind: domain.DirectiveSendText, Content: fmt.Sprintf("Your order reference is %s", event.SessionKey)},
	}

	logrus.Infof("Order %s registered for customer %s", event.SessionKey, customerID)

	return directives, domain.StateStart, nil
}

// recordOrder writes the order row. Persistence failure does not fail
// the checkout: the platform already holds the cart and customer.
func (s *DialogService) recordOrder(ctx context.Context, sessionKey, customerID, email string) {
	if s.orders == nil {
		return
	}

	var total *string
	if cart, err := s.commerce.GetCart(ctx, sessionKey); err != nil {
		logrus.Errorf("Failed to read cart total for order %s: %v", sessionKey, err)
	} else {
		total = &cart.TotalPrice
	}

	request := domain.OrderRequest{
		SessionKey: &sessionKey,
		CustomerID: &customerID,
		Email:      &email,
		Total:      total,
	}
	if _, err := s.orders.CreateOrder(request); err != nil {
		logrus.Errorf("Failed to record order %s: %v", sessionKey, err)
	}
}
