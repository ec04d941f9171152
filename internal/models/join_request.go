package models

import (
	"time"

	"gorm.io/gorm"
)

type JoinRequestStatus string

const (
	JoinPending  JoinRequestStatus = "pending"
	JoinApproved JoinRequestStatus = "approved"
	JoinRejected JoinRequestStatus = "rejected"
)

// JoinRequest tracks a user's request to join a group. Approval adds the user
// to the group roster; the request row is kept as an audit trail.
type JoinRequest struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	GroupID uint              `gorm:"not null;uniqueIndex:idx_join_group_user" json:"group_id"`
	UserID  uint              `gorm:"not null;uniqueIndex:idx_join_group_user" json:"user_id"`
	Status  JoinRequestStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
