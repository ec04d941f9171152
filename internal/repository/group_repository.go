package repository

import (
	"github.com/jp973/groupnotify-backend/internal/models"
	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

func (r *GroupRepository) FindByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.Preload("Members").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) FindByCreator(creatorID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Where("creator_id = ?", creatorID).
		Preload("Members").
		Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) FindByIDAndCreator(id, creatorID uint) (*models.Group, error) {
	var group models.Group
	err := r.db.Where("id = ? AND creator_id = ?", id, creatorID).
		Preload("Members").
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// FindAvailableForUser lists groups the user is not yet a member of.
func (r *GroupRepository) FindAvailableForUser(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Where(
		"id NOT IN (?)",
		r.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID),
	).Preload("Members").Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) Update(group *models.Group) error {
	return r.db.Save(group).Error
}

func (r *GroupRepository) Delete(id uint) error {
	if err := r.db.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Group{}, id).Error
}

func (r *GroupRepository) AddMember(groupID, userID uint) error {
	member := models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
	}
	return r.db.Create(&member).Error
}

func (r *GroupRepository) RemoveMember(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

func (r *GroupRepository) GetMembers(groupID uint) ([]models.User, error) {
	var members []models.User
	err := r.db.Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Find(&members).Error
	return members, err
}

func (r *GroupRepository) GetMemberIDs(groupID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) CountMembers(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}
