package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

type TeamService interface {
	CreateTeam(ctx context.Context, auth models.AuthContext, input CreateTeamInput) (*models.ReconciledTeamView, error)
	GetTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) (*models.ReconciledTeamView, error)
	ListMyTeams(ctx context.Context, auth models.AuthContext) ([]*models.ReconciledTeamView, error)
	AddMember(ctx context.Context, auth models.AuthContext, teamID, userID uuid.UUID) (*models.ReconciledTeamView, error)
	RemoveMember(ctx context.Context, auth models.AuthContext, teamID, userID uuid.UUID) (*models.ReconciledTeamView, error)
	UpdateTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID, input UpdateTeamInput) (*models.ReconciledTeamView, error)
	DisbandTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) error
}

type CreateTeamInput struct {
	Name       string `json:"name"`
	EventRef   string `json:"event_ref"`
	MaxMembers *int   `json:"max_members,omitempty"`
}

type UpdateTeamInput struct {
	Name       *string `json:"name,omitempty"`
	MaxMembers *int    `json:"max_members,omitempty"`
}

type teamService struct {
	txManager       TxManager
	teamRepo        repositories.TeamRepository
	memberRepo      repositories.MemberRepository
	invitationRepo  repositories.InvitationRepository
	joinRequestRepo repositories.JoinRequestRepository
	events          repositories.EventCatalog
	reconciler      ReconciliationService
	notifier        Notifier
	logger          *slog.Logger
}

func NewTeamService(
	txManager TxManager,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	invitationRepo repositories.InvitationRepository,
	joinRequestRepo repositories.JoinRequestRepository,
	events repositories.EventCatalog,
	reconciler ReconciliationService,
	notifier Notifier,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		txManager:       txManager,
		teamRepo:        teamRepo,
		memberRepo:      memberRepo,
		invitationRepo:  invitationRepo,
		joinRequestRepo: joinRequestRepo,
		events:          events,
		reconciler:      reconciler,
		notifier:        notifierOrNoop(notifier),
		logger:          logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, auth models.AuthContext, input CreateTeamInput) (*models.ReconciledTeamView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	eventRef := strings.TrimSpace(input.EventRef)
	if eventRef == "" {
		return nil, ErrEventRefRequired
	}

	event, err := s.events.GetByRef(ctx, eventRef)
	if err != nil && !errors.Is(err, repositories.ErrEventNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrEventCatalogUnavailable, err)
	}
	minSize, maxSize := event.TeamSizeBounds()

	maxMembers := maxSize
	if input.MaxMembers != nil {
		if *input.MaxMembers < minSize || *input.MaxMembers > maxSize {
			return nil, fmt.Errorf("%w: must be between %d and %d", ErrInvalidTeamSize, minSize, maxSize)
		}
		maxMembers = *input.MaxMembers
	}

	team := &models.Team{
		Name:       name,
		EventRef:   eventRef,
		LeaderID:   auth.UserID,
		MaxMembers: maxMembers,
		MinMembers: minSize,
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.teamRepo.Create(ctx, team)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamLeaderConflict):
			return nil, ErrLeaderHasTeam
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamUserInvalid):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to create team: %w", err)
		}
	}

	s.logger.Info("team created",
		slog.String("team_id", team.ID.String()),
		slog.String("event_ref", team.EventRef),
		slog.String("leader_id", auth.UserID.String()),
	)
	return s.publish(ctx, team)
}

func (s *teamService) GetTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) (*models.ReconciledTeamView, error) {
	team, err := getTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, ErrTeamNotFound
	}
	return s.reconciler.ReconcileTeam(ctx, team)
}

func (s *teamService) ListMyTeams(ctx context.Context, auth models.AuthContext) ([]*models.ReconciledTeamView, error) {
	teams, err := s.teamRepo.ListByMember(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %s: %w", auth.UserID, err)
	}
	return s.reconciler.ReconcileTeams(ctx, teams)
}

func (s *teamService) AddMember(ctx context.Context, auth models.AuthContext, teamID, userID uuid.UUID) (*models.ReconciledTeamView, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}

	var team *models.Team
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		team, err = getActiveTeamForUpdate(ctx, s.teamRepo, teamID)
		if err != nil {
			return err
		}
		if err := requireLeader(auth, team); err != nil {
			return err
		}
		if err := s.memberRepo.Add(ctx, &models.TeamMember{TeamID: teamID, UserID: userID, Role: models.RoleMember}); err != nil {
			return translateMemberError(err)
		}
		return closePendingFor(ctx, s.invitationRepo, s.joinRequestRepo, teamID, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, team)
}

// RemoveMember marks the member as left. Members may remove themselves and the leader may remove anyone else.
func (s *teamService) RemoveMember(ctx context.Context, auth models.AuthContext, teamID, userID uuid.UUID) (*models.ReconciledTeamView, error) {
	team, err := getTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if auth.UserID != team.LeaderID && auth.UserID != userID {
		return nil, ErrLeaderOrSelf
	}

	err = s.memberRepo.Deactivate(ctx, teamID, userID)
	switch {
	case err == nil:
		s.notifier.UserNotified(userID, models.Notification{
			Type:      models.NotificationMemberRemoved,
			TeamID:    team.ID,
			TeamName:  team.Name,
			Message:   fmt.Sprintf("You are no longer a member of %s", team.Name),
			CreatedAt: time.Now().UTC(),
		})
	case errors.Is(err, repositories.ErrMemberNotFound):
		// not an active member: nothing to do
	case errors.Is(err, repositories.ErrMemberIsLeader):
		return nil, ErrCannotRemoveLeader
	default:
		return nil, fmt.Errorf("failed to remove member %s from team %s: %w", userID, teamID, err)
	}

	return s.publish(ctx, team)
}

func (s *teamService) UpdateTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID, input UpdateTeamInput) (*models.ReconciledTeamView, error) {
	var team *models.Team
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		team, err = getActiveTeamForUpdate(ctx, s.teamRepo, teamID)
		if err != nil {
			return err
		}
		if err := requireLeader(auth, team); err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrTeamNameRequired
			}
			if name != team.Name {
				// the name is one of the keys payments are matched by
				view, err := s.reconciler.ReconcileTeam(ctx, team)
				if err != nil {
					return err
				}
				if view.IsRegistered {
					return ErrRegisteredRename
				}
			}
			team.Name = name
		}
		if input.MaxMembers != nil {
			if err := s.checkNewCapacity(ctx, team, *input.MaxMembers); err != nil {
				return err
			}
			team.MaxMembers = *input.MaxMembers
		}

		if err := s.teamRepo.Update(ctx, team); err != nil {
			switch {
			case errors.Is(err, repositories.ErrTeamNameConflict):
				return ErrTeamNameConflict
			case errors.Is(err, repositories.ErrTeamNotFound):
				return ErrTeamNotFound
			default:
				return fmt.Errorf("failed to update team %s: %w", teamID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.publish(ctx, team)
}

// checkNewCapacity runs under the team row lock, so the counts cannot move underneath it.
func (s *teamService) checkNewCapacity(ctx context.Context, team *models.Team, maxMembers int) error {
	event, err := s.events.GetByRef(ctx, team.EventRef)
	if err != nil && !errors.Is(err, repositories.ErrEventNotFound) {
		return fmt.Errorf("%w: %w", ErrEventCatalogUnavailable, err)
	}
	minSize, maxSize := event.TeamSizeBounds()
	if maxMembers < minSize || maxMembers > maxSize {
		return fmt.Errorf("%w: must be between %d and %d", ErrInvalidTeamSize, minSize, maxSize)
	}

	active, err := s.memberRepo.CountActive(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to count members of team %s: %w", team.ID, err)
	}
	pending, err := s.invitationRepo.CountPending(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to count invitations of team %s: %w", team.ID, err)
	}
	if maxMembers < active+pending {
		return ErrTeamSizeBelowMembers
	}
	return nil
}

// DisbandTeam soft-deletes the team and closes everything still pending for it.
func (s *teamService) DisbandTeam(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) error {
	var (
		team    *models.Team
		members []models.TeamMember
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		team, err = getActiveTeamForUpdate(ctx, s.teamRepo, teamID)
		if err != nil {
			return err
		}
		if err := requireLeader(auth, team); err != nil {
			return err
		}
		if members, err = s.memberRepo.ListActive(ctx, teamID); err != nil {
			return fmt.Errorf("failed to list members of team %s: %w", teamID, err)
		}
		if _, err := s.invitationRepo.CancelPendingByTeam(ctx, teamID); err != nil {
			return fmt.Errorf("failed to cancel invitations of team %s: %w", teamID, err)
		}
		if _, err := s.joinRequestRepo.RejectPendingByTeam(ctx, teamID); err != nil {
			return fmt.Errorf("failed to reject join requests of team %s: %w", teamID, err)
		}
		if err := s.teamRepo.Deactivate(ctx, teamID); err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("failed to disband team %s: %w", teamID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("team disbanded", slog.String("team_id", teamID.String()), slog.String("leader_id", auth.UserID.String()))
	s.notifier.TeamDisbanded(teamID)
	for _, m := range members {
		if m.UserID == auth.UserID {
			continue
		}
		s.notifier.UserNotified(m.UserID, models.Notification{
			Type:      models.NotificationTeamDisbanded,
			TeamID:    teamID,
			TeamName:  team.Name,
			Message:   fmt.Sprintf("Team %s was disbanded by its leader", team.Name),
			CreatedAt: time.Now().UTC(),
		})
	}
	return nil
}

// publish reconciles the committed team and pushes the view to subscribers.
func (s *teamService) publish(ctx context.Context, team *models.Team) (*models.ReconciledTeamView, error) {
	return publishTeam(ctx, s.reconciler, s.notifier, team)
}
