package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jp973/groupnotify-backend/internal/models"
)

// recordingNotifier captures every push so tests can assert on fan-out.
type recordingNotifier struct {
	calls []notifierCall
}

type notifierCall struct {
	Address string
	Message string
	Payload NotificationPayload
	Kind    string
}

func (n *recordingNotifier) SendNotification(address string, message string, payload NotificationPayload, kind string) {
	n.calls = append(n.calls, notifierCall{Address: address, Message: message, Payload: payload, Kind: kind})
}

// fakeFileResolver resolves any key to a fixed URL prefix.
type fakeFileResolver struct {
	err error
}

func (f *fakeFileResolver) PresignedDownloadURL(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://files.test/" + key, nil
}

func newDispatchFixture() (*NotificationService, *MockMessageRepository, *MockGroupRepository, *recordingNotifier) {
	messageRepo := NewMockMessageRepository()
	groupRepo := NewMockGroupRepository()
	notifier := &recordingNotifier{}
	svc := NewNotificationService(messageRepo, groupRepo, notifier, &fakeFileResolver{}, nil)
	return svc, messageRepo, groupRepo, notifier
}

func TestResolveGroupOrdering(t *testing.T) {
	svc, _, groupRepo, _ := newDispatchFixture()

	groupRepo.Create(&models.Group{ID: 1, Name: "Ops", CreatorID: 10})
	groupRepo.AddMember(1, 7)
	groupRepo.AddMember(1, 9)

	groupID := uint(1)
	addrs, err := svc.Resolve(&models.Message{GroupID: &groupID})
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	want := []Address{
		{ID: "7", Kind: AddressKindUser},
		{ID: "9", Kind: AddressKindUser},
		{ID: "group-1", Kind: AddressKindGroup},
	}
	if len(addrs) != len(want) {
		t.Fatalf("Resolve returned %d addresses, want %d", len(addrs), len(want))
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("address[%d] = %+v, want %+v", i, addrs[i], want[i])
		}
	}
}

func TestResolveDirect(t *testing.T) {
	svc, _, _, _ := newDispatchFixture()

	receiverID := uint(3)
	addrs, err := svc.Resolve(&models.Message{ReceiverID: &receiverID})
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if len(addrs) != 1 || addrs[0].ID != "3" || addrs[0].Kind != AddressKindUser {
		t.Errorf("Resolve = %+v, want single user address 3", addrs)
	}
}

func TestResolveNoTarget(t *testing.T) {
	svc, _, _, _ := newDispatchFixture()

	if _, err := svc.Resolve(&models.Message{}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Resolve error = %v, want ErrNoTarget", err)
	}
}

func TestDeliverMissingGroup(t *testing.T) {
	svc, _, _, notifier := newDispatchFixture()

	groupID := uint(42)
	err := svc.Deliver(&models.Message{GroupID: &groupID})
	if !errors.Is(err, ErrUndeliverable) {
		t.Fatalf("Deliver error = %v, want ErrUndeliverable", err)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("Deliver pushed %d notifications for a missing group, want 0", len(notifier.calls))
	}
}

func TestNotifyGroupImmediate(t *testing.T) {
	svc, messageRepo, groupRepo, notifier := newDispatchFixture()

	groupRepo.Create(&models.Group{ID: 1, Name: "Ops", CreatorID: 10})
	groupRepo.AddMember(1, 7)

	msg, err := svc.NotifyGroup(10, 1, BroadcastInput{Message: "maintenance window", FileName: "notes.pdf"})
	if err != nil {
		t.Fatalf("NotifyGroup error = %v", err)
	}
	if !msg.IsSent {
		t.Errorf("immediate broadcast persisted with IsSent=false")
	}
	if msg.ScheduledTime != nil {
		t.Errorf("immediate broadcast carries a scheduled time")
	}

	stored, err := messageRepo.FindByID(msg.ID)
	if err != nil {
		t.Fatalf("message not persisted: %v", err)
	}
	if stored.File != "notes.pdf" {
		t.Errorf("stored file = %q, want the bare key %q", stored.File, "notes.pdf")
	}

	// Member first, group room last.
	if len(notifier.calls) != 2 {
		t.Fatalf("pushed %d notifications, want 2", len(notifier.calls))
	}
	if notifier.calls[0].Address != "7" || notifier.calls[1].Address != "group-1" {
		t.Errorf("push order = [%s, %s], want member then room", notifier.calls[0].Address, notifier.calls[1].Address)
	}
	payload := notifier.calls[0].Payload
	if payload.GroupID != "1" || payload.GroupName != "Ops" {
		t.Errorf("payload = %+v, want groupId=1 groupName=Ops", payload)
	}
	if payload.File != "https://files.test/notes.pdf" {
		t.Errorf("payload file = %q, want resolved URL", payload.File)
	}
}

func TestNotifyGroupScheduled(t *testing.T) {
	svc, messageRepo, groupRepo, notifier := newDispatchFixture()

	groupRepo.Create(&models.Group{ID: 1, Name: "Ops", CreatorID: 10})
	groupRepo.AddMember(1, 7)

	at := time.Now().Add(time.Hour)
	msg, err := svc.NotifyGroup(10, 1, BroadcastInput{Message: "later", ScheduledTime: &at})
	if err != nil {
		t.Fatalf("NotifyGroup error = %v", err)
	}
	if msg.IsSent {
		t.Errorf("scheduled broadcast persisted with IsSent=true")
	}
	if msg.ScheduledTime == nil || !msg.ScheduledTime.Equal(at) {
		t.Errorf("scheduled time not persisted")
	}
	if len(notifier.calls) != 0 {
		t.Errorf("scheduled broadcast pushed %d notifications before due, want 0", len(notifier.calls))
	}

	if _, err := messageRepo.FindByID(msg.ID); err != nil {
		t.Errorf("scheduled message not persisted: %v", err)
	}
}

func TestNotifyGroupNotOwner(t *testing.T) {
	svc, _, groupRepo, _ := newDispatchFixture()

	groupRepo.Create(&models.Group{ID: 1, Name: "Ops", CreatorID: 10})

	if _, err := svc.NotifyGroup(99, 1, BroadcastInput{Message: "hi"}); err == nil {
		t.Errorf("NotifyGroup by a non-owner succeeded")
	}
}

func TestNotifyGroupEmptyInput(t *testing.T) {
	svc, _, groupRepo, _ := newDispatchFixture()

	groupRepo.Create(&models.Group{ID: 1, Name: "Ops", CreatorID: 10})

	if _, err := svc.NotifyGroup(10, 1, BroadcastInput{}); err == nil {
		t.Errorf("NotifyGroup with neither message nor file succeeded")
	}
}

func TestNotifyAllGroups(t *testing.T) {
	svc, _, groupRepo, notifier := newDispatchFixture()

	groupRepo.Create(&models.Group{ID: 1, Name: "Ops", CreatorID: 10,
		Members: []models.GroupMember{{GroupID: 1, UserID: 7}}})
	groupRepo.Create(&models.Group{ID: 2, Name: "Dev", CreatorID: 10,
		Members: []models.GroupMember{{GroupID: 2, UserID: 8}, {GroupID: 2, UserID: 9}}})
	groupRepo.AddMember(1, 7)
	groupRepo.AddMember(2, 8)
	groupRepo.AddMember(2, 9)

	total, err := svc.NotifyAllGroups(10, BroadcastInput{Message: "all hands"})
	if err != nil {
		t.Fatalf("NotifyAllGroups error = %v", err)
	}
	if total != 3 {
		t.Errorf("NotifyAllGroups total = %d, want 3", total)
	}
	// One push per member plus one per group room.
	if len(notifier.calls) != 5 {
		t.Errorf("pushed %d notifications, want 5", len(notifier.calls))
	}
}

func TestNotifyAllGroupsNoGroups(t *testing.T) {
	svc, _, _, _ := newDispatchFixture()

	if _, err := svc.NotifyAllGroups(10, BroadcastInput{Message: "hi"}); err == nil {
		t.Errorf("NotifyAllGroups without owned groups succeeded")
	}
}

func TestListGroupNotifications(t *testing.T) {
	svc, messageRepo, _, _ := newDispatchFixture()

	group1, group2 := uint(1), uint(2)
	messageRepo.Create(&models.Message{
		MessageType: models.AdminMessage, SenderID: 10, GroupID: &group1, GroupName: "Ops",
		Body: "first", File: "a.pdf", IsSent: true,
	})
	messageRepo.Create(&models.Message{
		MessageType: models.AdminMessage, SenderID: 10, GroupID: &group1, GroupName: "Ops",
		Body: "second", IsSent: true,
	})
	messageRepo.Create(&models.Message{
		MessageType: models.AdminMessage, SenderID: 10, GroupID: &group2, GroupName: "Dev",
		Body: "third", IsSent: true,
	})
	// Another admin's broadcast should not appear.
	messageRepo.Create(&models.Message{
		MessageType: models.AdminMessage, SenderID: 11, GroupID: &group1, GroupName: "Ops",
		Body: "other", IsSent: true,
	})

	views, total, err := svc.ListGroupNotifications(10, nil)
	if err != nil {
		t.Fatalf("ListGroupNotifications error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(views) != 2 {
		t.Fatalf("got %d group views, want 2", len(views))
	}
	if views[0].GroupID != 1 || views[0].TotalMessages != 2 {
		t.Errorf("view[0] = %+v, want group 1 with 2 messages", views[0])
	}
	if views[0].Notifications[0].File != "https://files.test/a.pdf" {
		t.Errorf("file not resolved to URL: %q", views[0].Notifications[0].File)
	}

	filtered, total, err := svc.ListGroupNotifications(10, &group2)
	if err != nil {
		t.Fatalf("ListGroupNotifications filtered error = %v", err)
	}
	if total != 1 || len(filtered) != 1 || filtered[0].GroupID != 2 {
		t.Errorf("filtered = %+v total = %d, want only group 2", filtered, total)
	}
}

func TestResolveFileURLDegrades(t *testing.T) {
	messageRepo := NewMockMessageRepository()
	groupRepo := NewMockGroupRepository()
	notifier := &recordingNotifier{}
	svc := NewNotificationService(messageRepo, groupRepo, notifier,
		&fakeFileResolver{err: errors.New("presign failed")}, nil)

	groupRepo.Create(&models.Group{ID: 1, Name: "Ops", CreatorID: 10})
	groupRepo.AddMember(1, 7)

	if _, err := svc.NotifyGroup(10, 1, BroadcastInput{Message: "hi", FileName: "a.pdf"}); err != nil {
		t.Fatalf("NotifyGroup error = %v", err)
	}
	if len(notifier.calls) == 0 {
		t.Fatalf("no notifications pushed")
	}
	if notifier.calls[0].Payload.File != "" {
		t.Errorf("payload file = %q, want empty on presign failure", notifier.calls[0].Payload.File)
	}
}
