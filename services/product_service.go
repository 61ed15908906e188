package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/models"
)

var ErrProductNotFound = errors.New("product not found")

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

type ProductFilter struct {
	CategoryID uint
	Featured   bool
	ActiveOnly bool
}

func (s *ProductService) List(filter ProductFilter) ([]models.Product, error) {
	query := s.db.Preload("Categories").Preload("Specifications")
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Featured {
		query = query.Where("is_featured = ?", true)
	}
	if filter.CategoryID != 0 {
		query = query.
			Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Where("pc.category_id = ?", filter.CategoryID)
	}
	var products []models.Product
	if err := query.Order("products.created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Categories").Preload("Specifications").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

type ProductInput struct {
	Name           string                        `json:"name"`
	Description    string                        `json:"description"`
	Price          float64                       `json:"price"`
	OldPrice       float64                       `json:"oldPrice"`
	Image          string                        `json:"image"`
	Images         string                        `json:"images"`
	Video          string                        `json:"video"`
	Stock          int                           `json:"stock"`
	IsActive       *bool                         `json:"isActive"`
	IsFeatured     bool                          `json:"isFeatured"`
	CategoryIDs    []uint                        `json:"categoryIds"`
	Specifications []ProductSpecificationInput   `json:"specifications"`
}

type ProductSpecificationInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *ProductService) Create(in ProductInput) (*models.Product, error) {
	product := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		OldPrice:    in.OldPrice,
		Image:       in.Image,
		Images:      in.Images,
		Video:       in.Video,
		Stock:       in.Stock,
		IsActive:    in.IsActive == nil || *in.IsActive,
		IsFeatured:  in.IsFeatured,
	}
	for _, spec := range in.Specifications {
		product.Specifications = append(product.Specifications, models.ProductSpecification{
			Name:  spec.Name,
			Value: spec.Value,
		})
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return s.replaceCategories(tx, &product, in.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(product.ID)
}

func (s *ProductService) Update(id uint, in ProductInput) (*models.Product, error) {
	product, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		product.Name = in.Name
		product.Description = in.Description
		product.Price = in.Price
		product.OldPrice = in.OldPrice
		product.Image = in.Image
		product.Images = in.Images
		product.Video = in.Video
		product.Stock = in.Stock
		if in.IsActive != nil {
			product.IsActive = *in.IsActive
		}
		product.IsFeatured = in.IsFeatured
		if err := tx.Omit("Specifications", "Categories").Save(product).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).
			Delete(&models.ProductSpecification{}).Error; err != nil {
			return err
		}
		for _, spec := range in.Specifications {
			row := models.ProductSpecification{
				ProductID: product.ID,
				Name:      spec.Name,
				Value:     spec.Value,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return s.replaceCategories(tx, product, in.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *ProductService) Delete(id uint) error {
	res := s.db.Select("Specifications").Delete(&models.Product{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *ProductService) replaceCategories(tx *gorm.DB, product *models.Product, ids []uint) error {
	if ids == nil {
		return nil
	}
	var categories []models.Category
	if len(ids) > 0 {
		if err := tx.Find(&categories, ids).Error; err != nil {
			return err
		}
	}
	return tx.Model(product).Association("Categories").Replace(categories)
}
