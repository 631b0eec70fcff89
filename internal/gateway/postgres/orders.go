// internal/gateway/postgres/orders.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/gateway"
	"gorm.io/gorm"
)

// CreateOrder stores an order with its items and returns it as stored
func (c *Client) CreateOrder(ctx context.Context, order *checkout.Order) (*checkout.Order, error) {
	if _, err := c.authorize(ctx, order.UserID); err != nil {
		return nil, err
	}

	model := orderFromDomain(order)

	tx := c.backend.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Create(model).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, gateway.NewError(gateway.CodeConflict, "Order number already exists")
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	c.backend.logger.WithFields(logrus.Fields{
		"order_id":     model.ID,
		"order_number": model.OrderNumber,
		"user_id":      model.UserID,
	}).Info("Order created")

	return model.toDomain(), nil
}

// ListOrders returns the identity's orders, newest first
func (c *Client) ListOrders(ctx context.Context, identityID string) ([]checkout.Order, error) {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return nil, err
	}

	var models []Order
	err := c.backend.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", identityID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]checkout.Order, 0, len(models))
	for i := range models {
		orders = append(orders, *models[i].toDomain())
	}
	return orders, nil
}

// GetOrder returns one of the identity's orders
func (c *Client) GetOrder(ctx context.Context, identityID, orderID string) (*checkout.Order, error) {
	if _, err := c.authorize(ctx, identityID); err != nil {
		return nil, err
	}

	if !validID(orderID) {
		return nil, gateway.NewError(gateway.CodeNotFound, "Order not found")
	}

	var model Order
	err := c.backend.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, identityID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gateway.NewError(gateway.CodeNotFound, "Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return model.toDomain(), nil
}
