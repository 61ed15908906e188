package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/models"
)

var ErrNewsNotFound = errors.New("news not found")

type NewsService struct {
	db *gorm.DB
}

func NewNewsService(db *gorm.DB) *NewsService {
	return &NewsService{db: db}
}

func (s *NewsService) List() ([]models.News, error) {
	var news []models.News
	if err := s.db.Order("created_at DESC").Find(&news).Error; err != nil {
		return nil, err
	}
	return news, nil
}

func (s *NewsService) GetByID(id uint) (*models.News, error) {
	var item models.News
	err := s.db.First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNewsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

type NewsInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

func (s *NewsService) Create(in NewsInput) (*models.News, error) {
	item := models.News{
		Title:   in.Title,
		Content: in.Content,
		Image:   in.Image,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *NewsService) Update(id uint, in NewsInput) (*models.News, error) {
	item, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	item.Title = in.Title
	item.Content = in.Content
	item.Image = in.Image
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (s *NewsService) Delete(id uint) error {
	res := s.db.Delete(&models.News{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNewsNotFound
	}
	return nil
}
