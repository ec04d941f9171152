package repository

import (
	"time"

	"github.com/jp973/groupnotify-backend/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	FindByIDs(ids []uint) ([]models.User, error)
	Update(user *models.User) error
	UpdatePassword(userID uint, passwordHash string) error
}

// GroupRepositoryInterface defines the contract for group repository operations
type GroupRepositoryInterface interface {
	Create(group *models.Group) error
	FindByID(id uint) (*models.Group, error)
	FindByCreator(creatorID uint) ([]models.Group, error)
	FindByIDAndCreator(id, creatorID uint) (*models.Group, error)
	FindAvailableForUser(userID uint) ([]models.Group, error)
	Update(group *models.Group) error
	Delete(id uint) error
	AddMember(groupID, userID uint) error
	RemoveMember(groupID, userID uint) error
	GetMembers(groupID uint) ([]models.User, error)
	GetMemberIDs(groupID uint) ([]uint, error)
	IsMember(groupID, userID uint) (bool, error)
	CountMembers(groupID uint) (int64, error)
}

// JoinRequestRepositoryInterface defines the contract for join request operations
type JoinRequestRepositoryInterface interface {
	Create(request *models.JoinRequest) error
	FindByID(id uint) (*models.JoinRequest, error)
	FindByGroupAndUser(groupID, userID uint) (*models.JoinRequest, error)
	FindPendingForGroups(groupIDs []uint) ([]models.JoinRequest, error)
	FindApprovedForUser(userID uint) ([]models.JoinRequest, error)
	UpdateStatus(id uint, status models.JoinRequestStatus) error
}

// MessageRepositoryInterface is the durable message store consumed by the
// dispatch paths and the scheduler.
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)

	// FindDueUnsent returns every scheduled message whose scheduled_time has
	// passed and which has not been marked sent. Immediate messages never
	// surface here: they are created with is_sent already true.
	FindDueUnsent(now time.Time) ([]models.Message, error)

	// MarkSent flips is_sent to true. Idempotent: a no-op for rows already sent.
	MarkSent(id uint) error

	FindGroupNotifications(senderID uint, groupID *uint) ([]models.Message, error)
	FindVisibleGroupMessages(groupIDs []uint, now time.Time) ([]models.Message, error)
	FindDirectHistory(userID uint, peerID *uint) ([]models.Message, error)
}

// OrderRepositoryInterface defines the contract for payment order operations
type OrderRepositoryInterface interface {
	Create(order *models.Order) error
	FindByGatewayOrderID(gatewayOrderID string) (*models.Order, error)
	MarkPaid(gatewayOrderID, paymentID string, status models.OrderStatus) error
}

// OtpTokenRepositoryInterface defines the contract for password reset OTPs
type OtpTokenRepositoryInterface interface {
	Upsert(email, otp string, expiresAt time.Time) error
	FindByEmailAndOTP(email, otp string) (*models.OtpToken, error)
	DeleteByEmail(email string) error
}

// RefreshTokenRepositoryInterface defines the contract for refresh token operations
type RefreshTokenRepositoryInterface interface {
	Create(token *models.RefreshToken) error
	FindValidByHash(tokenHash string) (*models.RefreshToken, error)
	RevokeByHash(tokenHash string) error
}
