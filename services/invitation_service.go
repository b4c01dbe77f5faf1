package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

type InvitationService interface {
	SendInvitation(ctx context.Context, auth models.AuthContext, teamID, inviteeID uuid.UUID) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, auth models.AuthContext, invitationID uuid.UUID) (*models.ReconciledTeamView, error)
	RejectInvitation(ctx context.Context, auth models.AuthContext, invitationID uuid.UUID) (*models.Invitation, error)
	CancelInvitation(ctx context.Context, auth models.AuthContext, invitationID uuid.UUID) (*models.Invitation, error)
	ListTeamInvitations(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) ([]*models.Invitation, error)
	ListMyInvitations(ctx context.Context, auth models.AuthContext) ([]*models.Invitation, error)
}

type invitationService struct {
	txManager       TxManager
	teamRepo        repositories.TeamRepository
	memberRepo      repositories.MemberRepository
	invitationRepo  repositories.InvitationRepository
	joinRequestRepo repositories.JoinRequestRepository
	userRepo        repositories.UserRepository
	reconciler      ReconciliationService
	syncer          SyncService
	notifier        Notifier
	logger          *slog.Logger
}

func NewInvitationService(
	txManager TxManager,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	invitationRepo repositories.InvitationRepository,
	joinRequestRepo repositories.JoinRequestRepository,
	userRepo repositories.UserRepository,
	reconciler ReconciliationService,
	syncer SyncService,
	notifier Notifier,
	logger *slog.Logger,
) InvitationService {
	return &invitationService{
		txManager:       txManager,
		teamRepo:        teamRepo,
		memberRepo:      memberRepo,
		invitationRepo:  invitationRepo,
		joinRequestRepo: joinRequestRepo,
		userRepo:        userRepo,
		reconciler:      reconciler,
		syncer:          syncer,
		notifier:        notifierOrNoop(notifier),
		logger:          logger,
	}
}

// SendInvitation reserves a slot for the invitee. The store re-checks capacity at insert time.
func (s *invitationService) SendInvitation(ctx context.Context, auth models.AuthContext, teamID, inviteeID uuid.UUID) (*models.Invitation, error) {
	if inviteeID == uuid.Nil {
		return nil, ErrUserIDRequired
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
	if inviteeID == auth.UserID {
		return nil, ErrSelfInvitation
	}

	invitee, err := s.userRepo.GetByID(ctx, inviteeID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", inviteeID, err)
	}

	if _, err := s.memberRepo.GetActive(ctx, teamID, inviteeID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, repositories.ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	inv := &models.Invitation{
		TeamID:    teamID,
		InviterID: auth.UserID,
		InviteeID: inviteeID,
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamFull):
			return nil, ErrNoFreeSlots
		case errors.Is(err, repositories.ErrInvitationExists):
			return nil, ErrInvitationExists
		case errors.Is(err, repositories.ErrInvitationSelf):
			return nil, ErrSelfInvitation
		case errors.Is(err, repositories.ErrTeamInactive):
			return nil, ErrTeamDisbanded
		case errors.Is(err, repositories.ErrInvitationRefInvalid):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to create invitation: %w", err)
		}
	}
	inv.Team = team
	inv.Invitee = invitee

	s.notifier.UserNotified(inviteeID, models.Notification{
		Type:      models.NotificationInvitationReceived,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Message:   fmt.Sprintf("You have been invited to join %s", team.Name),
		Payload:   inv,
		CreatedAt: time.Now().UTC(),
	})
	return inv, nil
}

// AcceptInvitation marks the invitation accepted and adds the member in one transaction.
// If the team filled up in the meantime nothing is written and the invitation stays pending.
func (s *invitationService) AcceptInvitation(ctx context.Context, auth models.AuthContext, invitationID uuid.UUID) (*models.ReconciledTeamView, error) {
	var team *models.Team
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		inv, err := s.getInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		if inv.InviteeID != auth.UserID {
			return ErrInviteeOnly
		}

		// team row first, same lock order as DisbandTeam
		team, err = getActiveTeamForUpdate(ctx, s.teamRepo, inv.TeamID)
		if err != nil {
			return err
		}
		if _, err := s.transition(ctx, invitationID, models.InvitationAccepted); err != nil {
			return err
		}
		if err := s.memberRepo.Add(ctx, &models.TeamMember{TeamID: inv.TeamID, UserID: auth.UserID, Role: models.RoleMember}); err != nil {
			return translateMemberError(err)
		}
		return closePendingFor(ctx, s.invitationRepo, s.joinRequestRepo, inv.TeamID, auth.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invitation accepted",
		slog.String("invitation_id", invitationID.String()),
		slog.String("team_id", team.ID.String()),
		slog.String("user_id", auth.UserID.String()),
	)
	s.notifier.UserNotified(team.LeaderID, models.Notification{
		Type:      models.NotificationInvitationAccepted,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Message:   "Your invitation was accepted",
		Payload:   map[string]any{"invitation_id": invitationID, "user_id": auth.UserID},
		CreatedAt: time.Now().UTC(),
	})

	view, err := publishTeam(ctx, s.reconciler, s.notifier, team)
	if err != nil {
		return nil, err
	}
	propagateRegistration(ctx, s.syncer, view, s.logger)
	return view, nil
}

func (s *invitationService) RejectInvitation(ctx context.Context, auth models.AuthContext, invitationID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != auth.UserID {
		return nil, ErrInviteeOnly
	}

	updated, err := s.transition(ctx, invitationID, models.InvitationRejected)
	if err != nil {
		return nil, err
	}

	s.notifier.UserNotified(inv.InviterID, models.Notification{
		Type:      models.NotificationInvitationRejected,
		TeamID:    inv.TeamID,
		Message:   "Your invitation was declined",
		Payload:   updated,
		CreatedAt: time.Now().UTC(),
	})
	return updated, nil
}

// CancelInvitation revokes a pending invitation. Racing with AcceptInvitation, exactly one of them commits.
func (s *invitationService) CancelInvitation(ctx context.Context, auth models.AuthContext, invitationID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	team, err := getTeam(ctx, s.teamRepo, inv.TeamID)
	if err != nil {
		return nil, err
	}
	if auth.UserID != team.LeaderID && auth.UserID != inv.InviterID {
		return nil, ErrLeaderOnly
	}

	updated, err := s.transition(ctx, invitationID, models.InvitationCancelled)
	if err != nil {
		return nil, err
	}

	s.notifier.UserNotified(inv.InviteeID, models.Notification{
		Type:      models.NotificationInvitationCancelled,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Message:   fmt.Sprintf("Your invitation to %s was withdrawn", team.Name),
		Payload:   updated,
		CreatedAt: time.Now().UTC(),
	})
	return updated, nil
}

func (s *invitationService) ListTeamInvitations(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) ([]*models.Invitation, error) {
	team, err := getTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireLeader(auth, team); err != nil {
		return nil, err
	}

	invitations, err := s.invitationRepo.ListByTeam(ctx, teamID, models.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations of team %s: %w", teamID, err)
	}
	return invitations, nil
}

func (s *invitationService) ListMyInvitations(ctx context.Context, auth models.AuthContext) ([]*models.Invitation, error) {
	invitations, err := s.invitationRepo.ListByInvitee(ctx, auth.UserID, models.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations of user %s: %w", auth.UserID, err)
	}
	return invitations, nil
}

func (s *invitationService) getInvitation(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	inv, err := s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation %s: %w", id, err)
	}
	return inv, nil
}

func (s *invitationService) transition(ctx context.Context, id uuid.UUID, to models.InvitationStatus) (*models.Invitation, error) {
	inv, err := s.invitationRepo.Transition(ctx, id, to)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInvitationNotPending):
			return nil, ErrInvitationNotPending
		case errors.Is(err, repositories.ErrInvitationNotFound):
			return nil, ErrInvitationNotFound
		default:
			return nil, fmt.Errorf("failed to mark invitation %s as %s: %w", id, to, err)
		}
	}
	return inv, nil
}
