package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

// SearchService finds invite candidates and joinable teams. Exclusions are recomputed on every call.
type SearchService interface {
	SearchUsersForTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID, query string) ([]*models.User, error)
	SearchTeamsToJoin(ctx context.Context, auth models.AuthContext, query string) ([]*models.TeamCandidate, error)
}

type searchService struct {
	teamRepo        repositories.TeamRepository
	memberRepo      repositories.MemberRepository
	invitationRepo  repositories.InvitationRepository
	joinRequestRepo repositories.JoinRequestRepository
	userRepo        repositories.UserRepository
}

func NewSearchService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	invitationRepo repositories.InvitationRepository,
	joinRequestRepo repositories.JoinRequestRepository,
	userRepo repositories.UserRepository,
) SearchService {
	return &searchService{
		teamRepo:        teamRepo,
		memberRepo:      memberRepo,
		invitationRepo:  invitationRepo,
		joinRequestRepo: joinRequestRepo,
		userRepo:        userRepo,
	}
}

// SearchUsersForTeam excludes the caller, active members and users with a pending invitation to the team.
func (s *searchService) SearchUsersForTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID, query string) ([]*models.User, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	team, err := getTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, ErrTeamDisbanded
	}
	if err := requireLeader(auth, team); err != nil {
		return nil, err
	}

	excluded := map[uuid.UUID]bool{auth.UserID: true}
	members, err := s.memberRepo.ListActive(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %s: %w", teamID, err)
	}
	for _, m := range members {
		excluded[m.UserID] = true
	}
	pending, err := s.invitationRepo.ListByTeam(ctx, teamID, models.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations of team %s: %w", teamID, err)
	}
	for _, inv := range pending {
		excluded[inv.InviteeID] = true
	}

	users, err := s.userRepo.Search(ctx, q, searchResultLimit+len(excluded))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	result := make([]*models.User, 0, searchResultLimit)
	for _, u := range users {
		if excluded[u.ID] {
			continue
		}
		result = append(result, u)
		if len(result) == searchResultLimit {
			break
		}
	}
	return result, nil
}

// SearchTeamsToJoin excludes teams the caller belongs to or has a pending request or invitation with.
func (s *searchService) SearchTeamsToJoin(ctx context.Context, auth models.AuthContext, query string) ([]*models.TeamCandidate, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]bool)
	mine, err := s.teamRepo.ListByMember(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %s: %w", auth.UserID, err)
	}
	for _, t := range mine {
		excluded[t.ID] = true
	}
	requests, err := s.joinRequestRepo.ListByRequester(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests of user %s: %w", auth.UserID, err)
	}
	for _, req := range requests {
		if req.Status == models.JoinRequestPending {
			excluded[req.TeamID] = true
		}
	}
	invitations, err := s.invitationRepo.ListByInvitee(ctx, auth.UserID, models.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations of user %s: %w", auth.UserID, err)
	}
	for _, inv := range invitations {
		excluded[inv.TeamID] = true
	}

	candidates, err := s.teamRepo.Search(ctx, q, searchResultLimit+len(excluded))
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}

	result := make([]*models.TeamCandidate, 0, searchResultLimit)
	for _, c := range candidates {
		if excluded[c.Team.ID] {
			continue
		}
		c.IsFull = c.CurrentMembers >= c.Team.MaxMembers
		result = append(result, c)
		if len(result) == searchResultLimit {
			break
		}
	}
	return result, nil
}
