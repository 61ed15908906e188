package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/models"
)

var ErrCartItemNotFound = errors.New("cart item not found")

type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func (s *CartService) List(sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.Preload("Product").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem merges quantity into an existing line for the same product
// instead of creating a duplicate row.
func (s *CartService) AddItem(sessionID string, productID uint, quantity int) (*models.CartItem, error) {
	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	var item models.CartItem
	err := s.db.Where("session_id = ? AND product_id = ?", sessionID, productID).First(&item).Error
	if err == nil {
		item.Quantity += quantity
		if err := s.db.Save(&item).Error; err != nil {
			return nil, err
		}
		item.Product = product
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item = models.CartItem{
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	item.Product = product
	return &item, nil
}

func (s *CartService) UpdateQuantity(id uint, quantity int) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	item.Quantity = quantity
	if err := s.db.Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartService) RemoveItem(id uint) error {
	return s.db.Delete(&models.CartItem{}, id).Error
}

func (s *CartService) ClearCart(sessionID string) error {
	return s.db.Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error
}
