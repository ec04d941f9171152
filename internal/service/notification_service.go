package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jp973/groupnotify-backend/internal/cache"
	"github.com/jp973/groupnotify-backend/internal/models"
	"github.com/jp973/groupnotify-backend/internal/repository"
)

// ErrUndeliverable marks a message whose target cannot be resolved right now
// (typically a vanished group). The caller must leave the message unsent so a
// later sweep retries the lookup.
var ErrUndeliverable = errors.New("message target cannot be resolved")

// ErrNoTarget rejects creation requests that carry neither a group nor a
// receiver, or both.
var ErrNoTarget = errors.New("message must target exactly one of group or receiver")

const (
	// AddressKindUser targets a single connected user.
	AddressKindUser = "user"
	// AddressKindGroup targets the group room: every connection currently
	// joined to the group's broadcast address.
	AddressKindGroup = "group"
)

// Address is one recipient of a notification fan-out.
type Address struct {
	ID   string
	Kind string
}

// GroupRoomAddress derives the broadcast address for a group.
func GroupRoomAddress(groupID uint) string {
	return fmt.Sprintf("group-%d", groupID)
}

// UserAddress derives the notification address for a user.
func UserAddress(userID uint) string {
	return fmt.Sprintf("%d", userID)
}

// NotificationPayload is the wire payload attached to every pushed
// notification. File is a fully resolved fetchable URL; the conversion from
// the stored object key happens at this boundary and nowhere earlier.
type NotificationPayload struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	File      string `json:"file"`
}

// Notifier pushes a named event to a logical address over the live channel.
// Fire-and-forget: recipients without an attached connection are dropped
// silently and failures are not surfaced to callers.
type Notifier interface {
	SendNotification(address string, message string, payload NotificationPayload, kind string)
}

// FileURLResolver maps a stored object key to a time-limited fetchable URL.
type FileURLResolver interface {
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

// NotificationService is the dispatch entry point for broadcasts and the
// delivery engine shared by the immediate path and the scheduler: it resolves
// a message's target to concrete addresses and pushes to each.
type NotificationService struct {
	messageRepo repository.MessageRepositoryInterface
	groupRepo   repository.GroupRepositoryInterface
	notifier    Notifier
	files       FileURLResolver
	rosterCache *cache.RosterCache
}

func NewNotificationService(
	messageRepo repository.MessageRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	notifier Notifier,
	files FileURLResolver,
	rosterCache *cache.RosterCache,
) *NotificationService {
	return &NotificationService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		notifier:    notifier,
		files:       files,
		rosterCache: rosterCache,
	}
}

// Resolve maps a message's target to its notification fan-out list. Group
// targets expand to one address per roster member followed by the group-room
// address; direct targets resolve to the single receiver. Pure lookup, no
// side effects beyond roster caching.
func (s *NotificationService) Resolve(msg *models.Message) ([]Address, error) {
	switch {
	case msg.GroupID != nil:
		roster, err := s.roster(*msg.GroupID)
		if err != nil {
			return nil, err
		}
		addrs := make([]Address, 0, len(roster.MemberIDs)+1)
		for _, id := range roster.MemberIDs {
			addrs = append(addrs, Address{ID: UserAddress(id), Kind: AddressKindUser})
		}
		// Members first, group room last.
		addrs = append(addrs, Address{ID: GroupRoomAddress(*msg.GroupID), Kind: AddressKindGroup})
		return addrs, nil
	case msg.ReceiverID != nil:
		return []Address{{ID: UserAddress(*msg.ReceiverID), Kind: AddressKindUser}}, nil
	default:
		return nil, ErrNoTarget
	}
}

// Deliver resolves the message's recipients and pushes the notification to
// every address. Used inline by immediate sends and per due message by the
// scheduler. Push failures are absorbed by the channel; only resolution
// failures are reported, wrapped as ErrUndeliverable when structural.
func (s *NotificationService) Deliver(msg *models.Message) error {
	addrs, err := s.Resolve(msg)
	if err != nil {
		return err
	}

	payload := s.buildPayload(msg)
	for _, addr := range addrs {
		s.notifier.SendNotification(addr.ID, msg.Body, payload, addr.Kind)
	}
	return nil
}

// BroadcastInput carries an admin broadcast request. An empty ScheduledTime
// means immediate; FileName is a bare storage key.
type BroadcastInput struct {
	Message       string     `json:"message"`
	FileName      string     `json:"fileName"`
	ScheduledTime *time.Time `json:"scheduledTime"`
}

func (in *BroadcastInput) validate() error {
	if in.Message == "" && in.FileName == "" {
		return errors.New("message or fileName is required")
	}
	return nil
}

// NotifyAllGroups broadcasts immediately to every group the admin owns.
// Returns the number of roster members notified.
func (s *NotificationService) NotifyAllGroups(adminID uint, in BroadcastInput) (int, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	groups, err := s.groupRepo.FindByCreator(adminID)
	if err != nil {
		return 0, err
	}
	if len(groups) == 0 {
		return 0, errors.New("no groups found for this admin")
	}

	total := 0
	for i := range groups {
		group := &groups[i]
		msg := &models.Message{
			MessageType: models.AdminMessage,
			SenderID:    adminID,
			SenderModel: models.SenderAdmin,
			GroupID:     &group.ID,
			GroupName:   group.Name,
			Body:        in.Message,
			File:        in.FileName,
			IsSent:      true,
		}
		if err := s.messageRepo.Create(msg); err != nil {
			return total, err
		}
		if err := s.Deliver(msg); err != nil {
			log.Printf("[dispatch] deliver failed for message %d: %v", msg.ID, err)
			continue
		}
		total += len(group.Members)
	}
	return total, nil
}

// NotifyGroup broadcasts to one group the admin owns, immediately or at the
// scheduled time. Scheduled sends persist unsent and return without touching
// the live channel; the scheduler picks them up once due.
func (s *NotificationService) NotifyGroup(adminID, groupID uint, in BroadcastInput) (*models.Message, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.FindByIDAndCreator(groupID, adminID)
	if err != nil {
		return nil, fmt.Errorf("group not found or not created by you: %w", err)
	}

	msg := &models.Message{
		MessageType:   models.AdminMessage,
		SenderID:      adminID,
		SenderModel:   models.SenderAdmin,
		GroupID:       &group.ID,
		GroupName:     group.Name,
		Body:          in.Message,
		File:          in.FileName,
		ScheduledTime: in.ScheduledTime,
		IsSent:        in.ScheduledTime == nil, // deferred sends start unsent
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}

	if in.ScheduledTime == nil {
		if err := s.Deliver(msg); err != nil {
			// Persisted and marked sent; delivery is best-effort.
			log.Printf("[dispatch] deliver failed for message %d: %v", msg.ID, err)
		}
	}
	return msg, nil
}

// GroupNotificationView groups an admin's sent notifications per group, with
// file keys resolved to fetchable URLs at read time.
type GroupNotificationView struct {
	GroupID       uint                    `json:"group_id"`
	GroupName     string                  `json:"group_name"`
	TotalMessages int                     `json:"total_messages"`
	Notifications []NotificationViewEntry `json:"notifications"`
}

type NotificationViewEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	File      string    `json:"file"`
}

// ListGroupNotifications returns the admin's sent broadcasts grouped by group.
func (s *NotificationService) ListGroupNotifications(adminID uint, groupID *uint) ([]GroupNotificationView, int, error) {
	messages, err := s.messageRepo.FindGroupNotifications(adminID, groupID)
	if err != nil {
		return nil, 0, err
	}

	byGroup := make(map[uint]*GroupNotificationView)
	order := make([]uint, 0)
	for i := range messages {
		msg := &messages[i]
		if msg.GroupID == nil {
			continue
		}
		view, ok := byGroup[*msg.GroupID]
		if !ok {
			view = &GroupNotificationView{GroupID: *msg.GroupID, GroupName: msg.GroupName}
			byGroup[*msg.GroupID] = view
			order = append(order, *msg.GroupID)
		}
		view.TotalMessages++
		view.Notifications = append(view.Notifications, NotificationViewEntry{
			Message:   msg.Body,
			Timestamp: msg.CreatedAt,
			File:      s.resolveFileURL(msg.File),
		})
	}

	views := make([]GroupNotificationView, 0, len(order))
	for _, id := range order {
		views = append(views, *byGroup[id])
	}
	return views, len(messages), nil
}

func (s *NotificationService) buildPayload(msg *models.Message) NotificationPayload {
	payload := NotificationPayload{
		GroupName: msg.GroupName,
		File:      s.resolveFileURL(msg.File),
	}
	if msg.GroupID != nil {
		payload.GroupID = fmt.Sprintf("%d", *msg.GroupID)
	}
	return payload
}

// resolveFileURL converts a stored object key to a presigned URL. Best-effort:
// a missing resolver or a presign failure degrades to an empty file field
// rather than blocking the notification.
func (s *NotificationService) resolveFileURL(key string) string {
	if key == "" || s.files == nil {
		return ""
	}
	url, err := s.files.PresignedDownloadURL(context.Background(), key)
	if err != nil {
		log.Printf("[dispatch] presign failed for %q: %v", key, err)
		return ""
	}
	return url
}

// roster fetches the group's fan-out view, preferring the cache. A lookup
// failure for the group itself is structural: the message is undeliverable
// until the group reappears.
func (s *NotificationService) roster(groupID uint) (*cache.GroupRoster, error) {
	if roster, ok := s.rosterCache.GetRoster(groupID); ok {
		return roster, nil
	}

	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: group %d: %v", ErrUndeliverable, groupID, err)
	}
	memberIDs, err := s.groupRepo.GetMemberIDs(groupID)
	if err != nil {
		return nil, err
	}

	roster := &cache.GroupRoster{
		GroupID:   group.ID,
		GroupName: group.Name,
		MemberIDs: memberIDs,
	}
	if err := s.rosterCache.SetRoster(roster); err != nil {
		log.Printf("[dispatch] roster cache write failed for group %d: %v", groupID, err)
	}
	return roster, nil
}
