package services

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/logger"
	"github.com/rukhmanov/kwadro-backend/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
)

// OrderEventPublisher receives order-created events. Delivery is best
// effort: a broker outage must not fail the checkout that already
// committed.
type OrderEventPublisher interface {
	PublishOrderCreated(order *models.Order) error
}

type OrderService struct {
	db        *gorm.DB
	cart      *CartService
	publisher OrderEventPublisher
}

func NewOrderService(db *gorm.DB, cart *CartService, publisher OrderEventPublisher) *OrderService {
	return &OrderService{db: db, cart: cart, publisher: publisher}
}

type CheckoutInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Comment string `json:"comment"`
}

// Checkout converts the session's cart into an order, snapshotting names
// and prices, and clears the cart in the same transaction.
func (s *OrderService) Checkout(sessionID string, in CheckoutInput) (*models.Order, error) {
	items, err := s.cart.List(sessionID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := models.Order{
		SessionID: sessionID,
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		Comment:   in.Comment,
		Status:    models.OrderStatusNew,
	}
	for _, item := range items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
		})
		order.Total += item.Product.Price * float64(item.Quantity)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		go func(order models.Order) {
			if err := s.publisher.PublishOrderCreated(&order); err != nil {
				logger.Error("publish order event", zap.Uint("order_id", order.ID), zap.Error(err))
			}
		}(order)
	}
	return &order, nil
}

func (s *OrderService) List() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) UpdateStatus(id uint, status string) (*models.Order, error) {
	order, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	order.Status = status
	if err := s.db.Omit("Items").Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}
