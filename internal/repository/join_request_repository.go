package repository

import (
	"github.com/jp973/groupnotify-backend/internal/models"
	"gorm.io/gorm"
)

type JoinRequestRepository struct {
	db *gorm.DB
}

func NewJoinRequestRepository(db *gorm.DB) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

func (r *JoinRequestRepository) Create(request *models.JoinRequest) error {
	return r.db.Create(request).Error
}

func (r *JoinRequestRepository) FindByID(id uint) (*models.JoinRequest, error) {
	var request models.JoinRequest
	if err := r.db.Preload("Group").Preload("User").First(&request, id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *JoinRequestRepository) FindByGroupAndUser(groupID, userID uint) (*models.JoinRequest, error) {
	var request models.JoinRequest
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *JoinRequestRepository) FindPendingForGroups(groupIDs []uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	if len(groupIDs) == 0 {
		return requests, nil
	}
	err := r.db.Where("group_id IN ? AND status = ?", groupIDs, models.JoinPending).
		Preload("Group").
		Preload("User").
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *JoinRequestRepository) FindApprovedForUser(userID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.db.Where("user_id = ? AND status = ?", userID, models.JoinApproved).
		Preload("Group").
		Find(&requests).Error
	return requests, err
}

func (r *JoinRequestRepository) UpdateStatus(id uint, status models.JoinRequestStatus) error {
	return r.db.Model(&models.JoinRequest{}).Where("id = ?", id).
		Update("status", status).Error
}
