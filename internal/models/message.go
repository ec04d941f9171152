package models

import (
	"time"
)

type MessageType string

const (
	AdminMessage MessageType = "admin"
	UserMessage  MessageType = "user"
)

// SenderModel identifies which account kind the polymorphic SenderID points at.
type SenderModel string

const (
	SenderUser  SenderModel = "User"
	SenderAdmin SenderModel = "Admin"
)

// Message is the durable record of every notification, immediate or scheduled.
// Exactly one of ReceiverID/GroupID is set: a message is either a direct
// user-to-user send or a group broadcast, never both. File holds a bare storage
// object key; it is resolved to a fetchable URL only at notify/read time.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"-"`

	MessageType MessageType `gorm:"type:varchar(20);not null;index" json:"message_type"`
	SenderID    uint        `gorm:"not null;index" json:"sender_id"`
	SenderModel SenderModel `gorm:"type:varchar(20);not null" json:"sender_model"`

	ReceiverID *uint  `gorm:"index" json:"receiver_id,omitempty"`
	GroupID    *uint  `gorm:"index" json:"group_id,omitempty"`
	GroupName  string `gorm:"size:100" json:"group_name,omitempty"` // snapshot at send time

	Body string `gorm:"column:message;type:text" json:"message"`
	File string `gorm:"size:255" json:"file,omitempty"` // storage key, never a URL

	// A nil ScheduledTime means "send at creation"; the dispatch path then
	// persists IsSent=true. A non-nil ScheduledTime is persisted with
	// IsSent=false and picked up by the scheduler once due.
	ScheduledTime *time.Time `gorm:"index:idx_messages_due" json:"scheduled_time,omitempty"`
	IsSent        bool       `gorm:"default:false;index:idx_messages_due" json:"is_sent"`
}

// IsGroup reports whether the message targets a group roster.
func (m *Message) IsGroup() bool {
	return m.GroupID != nil
}

// IsDue reports whether a scheduled message should be delivered at now.
func (m *Message) IsDue(now time.Time) bool {
	return !m.IsSent && m.ScheduledTime != nil && !m.ScheduledTime.After(now)
}

type MessageResponse struct {
	ID          uint        `json:"id"`
	MessageType MessageType `json:"message_type"`
	SenderID    uint        `json:"sender_id"`
	ReceiverID  *uint       `json:"receiver_id,omitempty"`
	GroupID     *uint       `json:"group_id,omitempty"`
	GroupName   string      `json:"group_name,omitempty"`
	Body        string      `json:"message"`
	File        string      `json:"file,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	IsSent      bool        `json:"is_sent"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		MessageType: m.MessageType,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		GroupID:     m.GroupID,
		GroupName:   m.GroupName,
		Body:        m.Body,
		File:        m.File,
		Timestamp:   m.CreatedAt,
		IsSent:      m.IsSent,
	}
}
