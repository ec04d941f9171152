package service

import (
	"errors"

	"github.com/jp973/groupnotify-backend/internal/cache"
	"github.com/jp973/groupnotify-backend/internal/models"
	"github.com/jp973/groupnotify-backend/internal/repository"
)

var (
	ErrGroupFull        = errors.New("group is full")
	ErrAlreadyRequested = errors.New("join request already sent")
	ErrNotGroupOwner    = errors.New("group not found or not created by you")
)

type GroupService struct {
	groupRepo       repository.GroupRepositoryInterface
	joinRequestRepo repository.JoinRequestRepositoryInterface
	userRepo        repository.UserRepositoryInterface
	rosterCache     *cache.RosterCache
}

func NewGroupService(
	groupRepo repository.GroupRepositoryInterface,
	joinRequestRepo repository.JoinRequestRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	rosterCache *cache.RosterCache,
) *GroupService {
	return &GroupService{
		groupRepo:       groupRepo,
		joinRequestRepo: joinRequestRepo,
		userRepo:        userRepo,
		rosterCache:     rosterCache,
	}
}

func (s *GroupService) CreateGroup(name string, maxUsers int, creatorID uint) (*models.Group, error) {
	if name == "" {
		return nil, errors.New("group name is required")
	}
	group := &models.Group{
		Name:      name,
		MaxUsers:  maxUsers,
		CreatorID: creatorID,
	}
	if err := s.groupRepo.Create(group); err != nil {
		return nil, err
	}
	return s.groupRepo.FindByID(group.ID)
}

func (s *GroupService) UpdateGroup(groupID, adminID uint, name string, maxUsers int) (*models.Group, error) {
	group, err := s.groupRepo.FindByIDAndCreator(groupID, adminID)
	if err != nil {
		return nil, ErrNotGroupOwner
	}
	if name != "" {
		group.Name = name
	}
	if maxUsers > 0 {
		group.MaxUsers = maxUsers
	}
	if err := s.groupRepo.Update(group); err != nil {
		return nil, err
	}
	// The roster snapshot carries the group name.
	_ = s.rosterCache.InvalidateRoster(groupID)
	return group, nil
}

func (s *GroupService) DeleteGroup(groupID, adminID uint) error {
	if _, err := s.groupRepo.FindByIDAndCreator(groupID, adminID); err != nil {
		return ErrNotGroupOwner
	}
	if err := s.groupRepo.Delete(groupID); err != nil {
		return err
	}
	return s.rosterCache.InvalidateRoster(groupID)
}

func (s *GroupService) GetAdminGroups(adminID uint) ([]models.Group, error) {
	return s.groupRepo.FindByCreator(adminID)
}

// GetAvailableGroups lists groups the user has not joined yet.
func (s *GroupService) GetAvailableGroups(userID uint) ([]models.Group, error) {
	return s.groupRepo.FindAvailableForUser(userID)
}

// RequestJoin records a pending join request for the group.
func (s *GroupService) RequestJoin(groupID, userID uint) error {
	if _, err := s.groupRepo.FindByID(groupID); err != nil {
		return errors.New("group not found")
	}
	if _, err := s.joinRequestRepo.FindByGroupAndUser(groupID, userID); err == nil {
		return ErrAlreadyRequested
	}
	return s.joinRequestRepo.Create(&models.JoinRequest{
		GroupID: groupID,
		UserID:  userID,
		Status:  models.JoinPending,
	})
}

// PendingRequests lists pending join requests across the admin's groups.
func (s *GroupService) PendingRequests(adminID uint) ([]models.JoinRequest, error) {
	groups, err := s.groupRepo.FindByCreator(adminID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return s.joinRequestRepo.FindPendingForGroups(ids)
}

// HandleJoinRequest approves or rejects a pending request. Approval adds the
// user to the roster, respecting the group's member cap.
func (s *GroupService) HandleJoinRequest(requestID, adminID uint, approve bool) error {
	request, err := s.joinRequestRepo.FindByID(requestID)
	if err != nil {
		return errors.New("join request not found")
	}

	group, err := s.groupRepo.FindByIDAndCreator(request.GroupID, adminID)
	if err != nil {
		return ErrNotGroupOwner
	}

	if !approve {
		return s.joinRequestRepo.UpdateStatus(requestID, models.JoinRejected)
	}

	if group.MaxUsers > 0 {
		count, err := s.groupRepo.CountMembers(group.ID)
		if err != nil {
			return err
		}
		if count >= int64(group.MaxUsers) {
			return ErrGroupFull
		}
	}

	if err := s.groupRepo.AddMember(request.GroupID, request.UserID); err != nil {
		return err
	}
	if err := s.joinRequestRepo.UpdateStatus(requestID, models.JoinApproved); err != nil {
		return err
	}
	return s.rosterCache.InvalidateRoster(request.GroupID)
}

// ApprovedGroupIDs returns the ids of groups the user belongs to.
func (s *GroupService) ApprovedGroupIDs(userID uint) ([]uint, error) {
	requests, err := s.joinRequestRepo.FindApprovedForUser(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.GroupID)
	}
	return ids, nil
}

// ApprovedGroups returns the groups the user belongs to.
func (s *GroupService) ApprovedGroups(userID uint) ([]models.JoinRequest, error) {
	return s.joinRequestRepo.FindApprovedForUser(userID)
}

// IsMember reports roster membership, used to authorize feed reads.
func (s *GroupService) IsMember(groupID, userID uint) (bool, error) {
	return s.groupRepo.IsMember(groupID, userID)
}
