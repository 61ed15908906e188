package services

import (
	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/models"
)

type ContactService struct {
	db *gorm.DB
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (s *ContactService) Create(in ContactInput) (*models.ContactRequest, error) {
	request := models.ContactRequest{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Message: in.Message,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *ContactService) List() ([]models.ContactRequest, error) {
	var requests []models.ContactRequest
	if err := s.db.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
