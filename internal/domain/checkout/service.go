// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/notify"
)

var (
	ErrNotAuthenticated = errors.New("sign in to place an order")
	ErrEmptyCart        = errors.New("cart is empty")
)

// Gateway is the slice of the remote data gateway checkout writes to
type Gateway interface {
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	DeleteCartLines(ctx context.Context, identityID string) error
	ListOrders(ctx context.Context, identityID string) ([]Order, error)
	GetOrder(ctx context.Context, identityID, orderID string) (*Order, error)
}

// Cart is what checkout needs from the visitor's cart store. Checkout runs
// place with the current lines and empties the cart when place succeeds.
type Cart interface {
	Checkout(place func(lines []cart.Line) error) error
}

// Service handles checkout business logic
type Service struct {
	gateway Gateway
	config  config.CheckoutConfig
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewService creates a new checkout service
func NewService(gw Gateway, cfg config.CheckoutConfig, logger logrus.FieldLogger) *Service {
	return &Service{gateway: gw, config: cfg, logger: logger, now: time.Now}
}

// Summarize computes shipping, tax and total for a cart subtotal
func (s *Service) Summarize(subtotal decimal.Decimal) Summary {
	shipping := s.config.ShippingFee
	if subtotal.GreaterThan(s.config.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(s.config.TaxRate).Round(2)

	return Summary{
		Subtotal:       subtotal,
		ShippingAmount: shipping,
		TaxAmount:      tax,
		TotalAmount:    subtotal.Add(shipping).Add(tax),
		Currency:       s.config.Currency,
	}
}

// PlaceOrder turns the cart into a confirmed order and empties the cart
func (s *Service) PlaceOrder(ctx context.Context, identity *session.Identity, c Cart, notifier notify.Notifier, req PlaceOrderRequest) (*Order, error) {
	if identity == nil {
		return nil, ErrNotAuthenticated
	}

	var created *Order
	err := c.Checkout(func(lines []cart.Line) error {
		if len(lines) == 0 {
			notifier.Error("Your cart is empty")
			return ErrEmptyCart
		}

		if s.config.ProcessingDelay > 0 {
			select {
			case <-ctx.Done():
				notifier.Error("Failed to place order. Please try again.")
				return ctx.Err()
			case <-time.After(s.config.ProcessingDelay):
			}
		}

		order, err := s.gateway.CreateOrder(ctx, s.buildOrder(identity.ID, lines, req))
		if err != nil {
			s.logger.WithError(err).WithField("user_id", identity.ID).Error("Error creating order")
			notifier.Error("Failed to place order. Please try again.")
			return fmt.Errorf("failed to create order: %w", err)
		}
		created = order

		if err := s.gateway.DeleteCartLines(ctx, identity.ID); err != nil {
			s.logger.WithError(err).WithField("order_number", created.OrderNumber).Warn("Error clearing cart rows after order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":      identity.ID,
		"order_number": created.OrderNumber,
		"total":        created.TotalAmount.String(),
	}).Info("Order placed")

	notifier.Success("Order placed successfully!")
	return created, nil
}

// Orders lists the identity's orders, newest first
func (s *Service) Orders(ctx context.Context, identityID string) ([]Order, error) {
	orders, err := s.gateway.ListOrders(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Order returns one of the identity's orders
func (s *Service) Order(ctx context.Context, identityID, orderID string) (*Order, error) {
	order, err := s.gateway.GetOrder(ctx, identityID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *Service) buildOrder(identityID string, lines []cart.Line, req PlaceOrderRequest) *Order {
	items := make([]OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		item := OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice(),
			Total:     line.LineTotal(),
		}
		if line.Product != nil {
			item.Name = line.Product.Name
			item.SKU = line.Product.SKU
		}
		if line.Variant != nil {
			item.VariantName = line.Variant.Name
			item.SKU = line.Variant.SKU
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.Total)
	}

	summary := s.Summarize(subtotal)
	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	now := s.now()
	return &Order{
		UserID:          identityID,
		OrderNumber:     fmt.Sprintf("ORD-%d", now.UnixMilli()),
		Status:          OrderStatusConfirmed,
		PaymentStatus:   PaymentStatusPaid,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        summary.Subtotal,
		TaxAmount:       summary.TaxAmount,
		ShippingAmount:  summary.ShippingAmount,
		DiscountAmount:  decimal.Zero,
		TotalAmount:     summary.TotalAmount,
		Currency:        summary.Currency,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		Items:           items,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
