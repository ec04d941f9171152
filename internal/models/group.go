package models

import (
	"time"

	"gorm.io/gorm"
)

type Group struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `gorm:"size:100;not null" json:"group_name"`
	MaxUsers int    `gorm:"default:0" json:"max_users"` // 0 means unlimited

	CreatorID uint `gorm:"not null;index" json:"creator_id"`
	Creator   User `gorm:"foreignKey:CreatorID" json:"-"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// GroupMember is the roster row for an approved member.
type GroupMember struct {
	GroupID  uint      `gorm:"primaryKey" json:"group_id"`
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

type GroupResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"group_name"`
	MaxUsers    int    `json:"max_users"`
	CreatorID   uint   `json:"creator_id"`
	MemberCount int    `json:"member_count"`
}

func (g *Group) ToResponse() GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		MaxUsers:    g.MaxUsers,
		CreatorID:   g.CreatorID,
		MemberCount: len(g.Members),
	}
}
