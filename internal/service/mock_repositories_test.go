package service

import (
	"errors"
	"sort"
	"time"

	"github.com/jp973/groupnotify-backend/internal/models"
)

// MockMessageRepository is an in-memory message store for testing. Insertion
// order is preserved so listing assertions stay deterministic.
type MockMessageRepository struct {
	messages []*models.Message
	nextID   uint

	createErr   error
	dueErr      error
	markSentErr error
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{nextID: 1}
}

func (m *MockMessageRepository) Create(message *models.Message) error {
	if m.createErr != nil {
		return m.createErr
	}
	if message.ID == 0 {
		message.ID = m.nextID
		m.nextID++
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, message)
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockMessageRepository) FindDueUnsent(now time.Time) ([]models.Message, error) {
	if m.dueErr != nil {
		return nil, m.dueErr
	}
	var result []models.Message
	for _, msg := range m.messages {
		if msg.IsDue(now) {
			result = append(result, *msg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledTime.Before(*result[j].ScheduledTime)
	})
	return result, nil
}

func (m *MockMessageRepository) MarkSent(id uint) error {
	if m.markSentErr != nil {
		return m.markSentErr
	}
	for _, msg := range m.messages {
		if msg.ID == id && !msg.IsSent {
			msg.IsSent = true
		}
	}
	return nil
}

func (m *MockMessageRepository) FindGroupNotifications(senderID uint, groupID *uint) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range m.messages {
		if msg.SenderID != senderID || msg.MessageType != models.AdminMessage {
			continue
		}
		if groupID != nil && (msg.GroupID == nil || *msg.GroupID != *groupID) {
			continue
		}
		result = append(result, *msg)
	}
	return result, nil
}

func (m *MockMessageRepository) FindVisibleGroupMessages(groupIDs []uint, now time.Time) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range m.messages {
		if msg.GroupID == nil || msg.MessageType != models.AdminMessage {
			continue
		}
		if msg.ScheduledTime != nil && msg.ScheduledTime.After(now) {
			continue
		}
		for _, id := range groupIDs {
			if *msg.GroupID == id {
				result = append(result, *msg)
				break
			}
		}
	}
	return result, nil
}

func (m *MockMessageRepository) FindDirectHistory(userID uint, peerID *uint) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range m.messages {
		if msg.MessageType != models.UserMessage || msg.ReceiverID == nil {
			continue
		}
		if peerID != nil {
			if !((msg.SenderID == userID && *msg.ReceiverID == *peerID) ||
				(msg.SenderID == *peerID && *msg.ReceiverID == userID)) {
				continue
			}
		} else if msg.SenderID != userID && *msg.ReceiverID != userID {
			continue
		}
		result = append(result, *msg)
	}
	return result, nil
}

// MockGroupRepository is an in-memory group store with a roster map.
type MockGroupRepository struct {
	groups  map[uint]*models.Group
	rosters map[uint][]uint
	nextID  uint
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups:  make(map[uint]*models.Group),
		rosters: make(map[uint][]uint),
		nextID:  1,
	}
}

func (m *MockGroupRepository) Create(group *models.Group) error {
	if group.ID == 0 {
		group.ID = m.nextID
		m.nextID++
	}
	m.groups[group.ID] = group
	return nil
}

func (m *MockGroupRepository) FindByID(id uint) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockGroupRepository) FindByCreator(creatorID uint) ([]models.Group, error) {
	var result []models.Group
	ids := make([]uint, 0, len(m.groups))
	for id := range m.groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if m.groups[id].CreatorID == creatorID {
			result = append(result, *m.groups[id])
		}
	}
	return result, nil
}

func (m *MockGroupRepository) FindByIDAndCreator(id, creatorID uint) (*models.Group, error) {
	g, ok := m.groups[id]
	if !ok || g.CreatorID != creatorID {
		return nil, errors.New("record not found")
	}
	return g, nil
}

func (m *MockGroupRepository) FindAvailableForUser(userID uint) ([]models.Group, error) {
	var result []models.Group
	for _, g := range m.groups {
		member := false
		for _, id := range m.rosters[g.ID] {
			if id == userID {
				member = true
				break
			}
		}
		if !member {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *MockGroupRepository) Update(group *models.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return errors.New("record not found")
	}
	m.groups[group.ID] = group
	return nil
}

func (m *MockGroupRepository) Delete(id uint) error {
	delete(m.groups, id)
	delete(m.rosters, id)
	return nil
}

func (m *MockGroupRepository) AddMember(groupID, userID uint) error {
	m.rosters[groupID] = append(m.rosters[groupID], userID)
	return nil
}

func (m *MockGroupRepository) RemoveMember(groupID, userID uint) error {
	roster := m.rosters[groupID]
	for i, id := range roster {
		if id == userID {
			m.rosters[groupID] = append(roster[:i], roster[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockGroupRepository) GetMembers(groupID uint) ([]models.User, error) {
	var users []models.User
	for _, id := range m.rosters[groupID] {
		users = append(users, models.User{ID: id})
	}
	return users, nil
}

func (m *MockGroupRepository) GetMemberIDs(groupID uint) ([]uint, error) {
	return m.rosters[groupID], nil
}

func (m *MockGroupRepository) IsMember(groupID, userID uint) (bool, error) {
	for _, id := range m.rosters[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockGroupRepository) CountMembers(groupID uint) (int64, error) {
	return int64(len(m.rosters[groupID])), nil
}

// MockUserRepository is an in-memory user store.
type MockUserRepository struct {
	users  map[uint]*models.User
	nextID uint
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]*models.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(user *models.User) error {
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByIDs(ids []uint) ([]models.User, error) {
	var result []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *MockUserRepository) Update(user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return errors.New("record not found")
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) UpdatePassword(userID uint, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return errors.New("record not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

// MockJoinRequestRepository is an in-memory join request store.
type MockJoinRequestRepository struct {
	requests map[uint]*models.JoinRequest
	nextID   uint
}

func NewMockJoinRequestRepository() *MockJoinRequestRepository {
	return &MockJoinRequestRepository{
		requests: make(map[uint]*models.JoinRequest),
		nextID:   1,
	}
}

func (m *MockJoinRequestRepository) Create(request *models.JoinRequest) error {
	if request.ID == 0 {
		request.ID = m.nextID
		m.nextID++
	}
	m.requests[request.ID] = request
	return nil
}

func (m *MockJoinRequestRepository) FindByID(id uint) (*models.JoinRequest, error) {
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockJoinRequestRepository) FindByGroupAndUser(groupID, userID uint) (*models.JoinRequest, error) {
	for _, r := range m.requests {
		if r.GroupID == groupID && r.UserID == userID {
			return r, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockJoinRequestRepository) FindPendingForGroups(groupIDs []uint) ([]models.JoinRequest, error) {
	var result []models.JoinRequest
	for _, r := range m.requests {
		if r.Status != models.JoinPending {
			continue
		}
		for _, id := range groupIDs {
			if r.GroupID == id {
				result = append(result, *r)
				break
			}
		}
	}
	return result, nil
}

func (m *MockJoinRequestRepository) FindApprovedForUser(userID uint) ([]models.JoinRequest, error) {
	var result []models.JoinRequest
	ids := make([]uint, 0, len(m.requests))
	for id := range m.requests {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		r := m.requests[id]
		if r.UserID == userID && r.Status == models.JoinApproved {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *MockJoinRequestRepository) UpdateStatus(id uint, status models.JoinRequestStatus) error {
	r, ok := m.requests[id]
	if !ok {
		return errors.New("record not found")
	}
	r.Status = status
	return nil
}

// MockOrderRepository is an in-memory order store.
type MockOrderRepository struct {
	orders map[string]*models.Order
	nextID uint
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*models.Order),
		nextID: 1,
	}
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	if order.ID == 0 {
		order.ID = m.nextID
		m.nextID++
	}
	m.orders[order.GatewayOrderID] = order
	return nil
}

func (m *MockOrderRepository) FindByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	if o, ok := m.orders[gatewayOrderID]; ok {
		return o, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockOrderRepository) MarkPaid(gatewayOrderID, paymentID string, status models.OrderStatus) error {
	o, ok := m.orders[gatewayOrderID]
	if !ok {
		return errors.New("record not found")
	}
	o.PaymentID = paymentID
	o.Status = status
	o.IsPaid = status == models.OrderCaptured
	return nil
}

// MockOtpTokenRepository is an in-memory OTP store keyed by email.
type MockOtpTokenRepository struct {
	tokens map[string]*models.OtpToken
}

func NewMockOtpTokenRepository() *MockOtpTokenRepository {
	return &MockOtpTokenRepository{tokens: make(map[string]*models.OtpToken)}
}

func (m *MockOtpTokenRepository) Upsert(email, otp string, expiresAt time.Time) error {
	m.tokens[email] = &models.OtpToken{Email: email, OTP: otp, ExpiresAt: expiresAt}
	return nil
}

func (m *MockOtpTokenRepository) FindByEmailAndOTP(email, otp string) (*models.OtpToken, error) {
	if t, ok := m.tokens[email]; ok && t.OTP == otp {
		return t, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockOtpTokenRepository) DeleteByEmail(email string) error {
	delete(m.tokens, email)
	return nil
}

// MockRefreshTokenRepository is an in-memory refresh token store keyed by hash.
type MockRefreshTokenRepository struct {
	tokens map[string]*models.RefreshToken
	nextID uint
}

func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{
		tokens: make(map[string]*models.RefreshToken),
		nextID: 1,
	}
}

func (m *MockRefreshTokenRepository) Create(token *models.RefreshToken) error {
	if token.ID == 0 {
		token.ID = m.nextID
		m.nextID++
	}
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *MockRefreshTokenRepository) FindValidByHash(tokenHash string) (*models.RefreshToken, error) {
	t, ok := m.tokens[tokenHash]
	if !ok || t.IsRevoked() || t.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("record not found")
	}
	return t, nil
}

func (m *MockRefreshTokenRepository) RevokeByHash(tokenHash string) error {
	if t, ok := m.tokens[tokenHash]; ok {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}
