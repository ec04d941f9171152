package service

import (
	"errors"
	"time"

	"github.com/jp973/groupnotify-backend/internal/models"
	"github.com/jp973/groupnotify-backend/internal/repository"
)

// MessageService covers the user-facing message paths: direct user-to-user
// sends and the history/listing reads.
type MessageService struct {
	messageRepo repository.MessageRepositoryInterface
	userRepo    repository.UserRepositoryInterface
	dispatch    *NotificationService
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	dispatch *NotificationService,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		dispatch:    dispatch,
	}
}

type SendDirectInput struct {
	ReceiverID uint   `json:"receiver_id"`
	Message    string `json:"message"`
}

// SendDirect persists a user-to-user message and notifies the receiver
// inline. Direct sends are always immediate: is_sent is true from creation.
func (s *MessageService) SendDirect(senderID uint, in SendDirectInput) (*models.Message, error) {
	if in.ReceiverID == 0 || in.Message == "" {
		return nil, errors.New("receiver_id and message are required")
	}
	if _, err := s.userRepo.FindByID(in.ReceiverID); err != nil {
		return nil, errors.New("receiver not found")
	}

	msg := &models.Message{
		MessageType: models.UserMessage,
		SenderID:    senderID,
		SenderModel: models.SenderUser,
		ReceiverID:  &in.ReceiverID,
		Body:        in.Message,
		IsSent:      true,
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}

	// Best-effort live push; the message is already durable.
	_ = s.dispatch.Deliver(msg)

	return msg, nil
}

// ChatEntry is one line of a direct conversation, from the caller's view.
type ChatEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"` // "sent" or "received"
}

// ChatHistory groups the caller's direct messages by peer. A non-nil peerID
// restricts the history to that conversation.
func (s *MessageService) ChatHistory(userID uint, peerID *uint) (map[string][]ChatEntry, error) {
	messages, err := s.messageRepo.FindDirectHistory(userID, peerID)
	if err != nil {
		return nil, err
	}

	conversations := make(map[string][]ChatEntry)
	for i := range messages {
		msg := &messages[i]
		if msg.ReceiverID == nil {
			continue
		}
		sentByMe := msg.SenderID == userID
		peer := msg.SenderID
		if sentByMe {
			peer = *msg.ReceiverID
		}
		direction := "received"
		if sentByMe {
			direction = "sent"
		}
		key := UserAddress(peer)
		conversations[key] = append(conversations[key], ChatEntry{
			Message:   msg.Body,
			Timestamp: msg.CreatedAt,
			Direction: direction,
		})
	}
	return conversations, nil
}

// GroupFeedView is the member-facing feed of a group's admin broadcasts.
type GroupFeedView struct {
	GroupID       uint                    `json:"group_id"`
	GroupName     string                  `json:"group_name"`
	Notifications []NotificationViewEntry `json:"notifications"`
}

// GroupFeed lists admin broadcasts for the member's approved groups, hiding
// scheduled messages that are not yet due. File keys resolve to URLs here.
func (s *MessageService) GroupFeed(groupIDs []uint, now time.Time) ([]GroupFeedView, error) {
	messages, err := s.messageRepo.FindVisibleGroupMessages(groupIDs, now)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[uint]*GroupFeedView)
	order := make([]uint, 0)
	for i := range messages {
		msg := &messages[i]
		if msg.GroupID == nil {
			continue
		}
		view, ok := byGroup[*msg.GroupID]
		if !ok {
			view = &GroupFeedView{GroupID: *msg.GroupID, GroupName: msg.GroupName}
			byGroup[*msg.GroupID] = view
			order = append(order, *msg.GroupID)
		}
		view.Notifications = append(view.Notifications, NotificationViewEntry{
			Message:   msg.Body,
			Timestamp: msg.CreatedAt,
			File:      s.dispatch.resolveFileURL(msg.File),
		})
	}

	views := make([]GroupFeedView, 0, len(order))
	for _, id := range order {
		views = append(views, *byGroup[id])
	}
	return views, nil
}
