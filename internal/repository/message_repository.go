package repository

import (
	"time"

	"github.com/jp973/groupnotify-backend/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindDueUnsent(now time.Time) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("scheduled_time IS NOT NULL AND scheduled_time <= ? AND is_sent = ?", now, false).
		Order("scheduled_time ASC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) MarkSent(id uint) error {
	// Guarding on is_sent keeps the transition idempotent.
	return r.db.Model(&models.Message{}).
		Where("id = ? AND is_sent = ?", id, false).
		Update("is_sent", true).Error
}

func (r *MessageRepository) FindGroupNotifications(senderID uint, groupID *uint) ([]models.Message, error) {
	q := r.db.Where("sender_id = ? AND message_type = ?", senderID, models.AdminMessage)
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}
	var messages []models.Message
	err := q.Order("created_at DESC").Find(&messages).Error
	return messages, err
}

// FindVisibleGroupMessages returns admin broadcasts for the given groups,
// hiding scheduled messages whose time has not arrived yet.
func (r *MessageRepository) FindVisibleGroupMessages(groupIDs []uint, now time.Time) ([]models.Message, error) {
	var messages []models.Message
	if len(groupIDs) == 0 {
		return messages, nil
	}
	err := r.db.Where("group_id IN ? AND message_type = ?", groupIDs, models.AdminMessage).
		Where("scheduled_time IS NULL OR scheduled_time <= ?", now).
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) FindDirectHistory(userID uint, peerID *uint) ([]models.Message, error) {
	q := r.db.Where("message_type = ? AND receiver_id IS NOT NULL", models.UserMessage)
	if peerID != nil {
		q = q.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, *peerID, *peerID, userID,
		)
	} else {
		q = q.Where("sender_id = ? OR receiver_id = ?", userID, userID)
	}
	var messages []models.Message
	err := q.Order("created_at ASC").Find(&messages).Error
	return messages, err
}
