package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/models"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) List() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Preload("Specifications").
		Order("sort ASC, id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CategoryService) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.Preload("Specifications").First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName matches case-insensitively; the telegram parser references
// categories by name, not id.
func (s *CategoryService) FindByName(name string) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

type CategoryInput struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Image          string   `json:"image"`
	Order          int      `json:"order"`
	Specifications []string `json:"specifications"`
}

func (s *CategoryService) Create(in CategoryInput) (*models.Category, error) {
	category := models.Category{
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		Order:       in.Order,
	}
	for _, name := range in.Specifications {
		category.Specifications = append(category.Specifications, models.CategorySpecification{Name: name})
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) Update(id uint, in CategoryInput) (*models.Category, error) {
	category, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		category.Name = in.Name
		category.Description = in.Description
		category.Image = in.Image
		category.Order = in.Order
		if err := tx.Omit("Specifications").Save(category).Error; err != nil {
			return err
		}
		if in.Specifications == nil {
			return nil
		}
		if err := tx.Where("category_id = ?", category.ID).
			Delete(&models.CategorySpecification{}).Error; err != nil {
			return err
		}
		for _, name := range in.Specifications {
			row := models.CategorySpecification{CategoryID: category.ID, Name: name}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *CategoryService) Delete(id uint) error {
	res := s.db.Select("Specifications").Delete(&models.Category{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
