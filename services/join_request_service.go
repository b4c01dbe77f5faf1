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

const maxJoinMessageLength = 500

type JoinRequestService interface {
	SendJoinRequest(ctx context.Context, auth models.AuthContext, teamID uuid.UUID, message string) (*models.JoinRequest, error)
	CancelJoinRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.JoinRequest, error)
	AcceptJoinRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.ReconciledTeamView, error)
	RejectJoinRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.JoinRequest, error)
	// ListIncoming returns pending requests for every team the caller leads.
	ListIncoming(ctx context.Context, auth models.AuthContext) ([]*models.JoinRequest, error)
	ListMine(ctx context.Context, auth models.AuthContext) ([]*models.JoinRequest, error)
}

type joinRequestService struct {
	txManager       TxManager
	teamRepo        repositories.TeamRepository
	memberRepo      repositories.MemberRepository
	invitationRepo  repositories.InvitationRepository
	joinRequestRepo repositories.JoinRequestRepository
	reconciler      ReconciliationService
	syncer          SyncService
	notifier        Notifier
	logger          *slog.Logger
}

func NewJoinRequestService(
	txManager TxManager,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	invitationRepo repositories.InvitationRepository,
	joinRequestRepo repositories.JoinRequestRepository,
	reconciler ReconciliationService,
	syncer SyncService,
	notifier Notifier,
	logger *slog.Logger,
) JoinRequestService {
	return &joinRequestService{
		txManager:       txManager,
		teamRepo:        teamRepo,
		memberRepo:      memberRepo,
		invitationRepo:  invitationRepo,
		joinRequestRepo: joinRequestRepo,
		reconciler:      reconciler,
		syncer:          syncer,
		notifier:        notifierOrNoop(notifier),
		logger:          logger,
	}
}

// SendJoinRequest creates a pending request. Earlier rejected or cancelled requests do not block a new one.
func (s *joinRequestService) SendJoinRequest(ctx context.Context, auth models.AuthContext, teamID uuid.UUID, message string) (*models.JoinRequest, error) {
	team, err := getTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, ErrTeamDisbanded
	}

	if _, err := s.memberRepo.GetActive(ctx, teamID, auth.UserID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, repositories.ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	req := &models.JoinRequest{TeamID: teamID, RequesterID: auth.UserID}
	if msg := strings.TrimSpace(message); msg != "" {
		if len([]rune(msg)) > maxJoinMessageLength {
			return nil, ErrMessageTooLong
		}
		req.Message = &msg
	}

	if err := s.joinRequestRepo.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, repositories.ErrJoinRequestExists):
			return nil, ErrJoinRequestExists
		case errors.Is(err, repositories.ErrJoinRequestRefInvalid):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to create join request: %w", err)
		}
	}
	req.Team = team

	s.notifier.UserNotified(team.LeaderID, models.Notification{
		Type:      models.NotificationJoinRequestReceived,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Message:   fmt.Sprintf("New request to join %s", team.Name),
		Payload:   req,
		CreatedAt: time.Now().UTC(),
	})
	return req, nil
}

func (s *joinRequestService) CancelJoinRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.JoinRequest, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != auth.UserID {
		return nil, ErrRequesterOnly
	}
	return s.transition(ctx, requestID, models.JoinRequestCancelled)
}

// AcceptJoinRequest approves the request and adds the requester in one transaction.
// When the last slot was taken concurrently the request stays pending and ErrTeamFull is returned.
func (s *joinRequestService) AcceptJoinRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.ReconciledTeamView, error) {
	var (
		team *models.Team
		req  *models.JoinRequest
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.getRequest(ctx, requestID)
		if err != nil {
			return err
		}
		team, err = getActiveTeamForUpdate(ctx, s.teamRepo, req.TeamID)
		if err != nil {
			return err
		}
		if err := requireLeader(auth, team); err != nil {
			return err
		}
		if _, err := s.transition(ctx, requestID, models.JoinRequestApproved); err != nil {
			return err
		}
		if err := s.memberRepo.Add(ctx, &models.TeamMember{TeamID: team.ID, UserID: req.RequesterID, Role: models.RoleMember}); err != nil {
			return translateMemberError(err)
		}
		return closePendingFor(ctx, s.invitationRepo, s.joinRequestRepo, team.ID, req.RequesterID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("join request approved",
		slog.String("request_id", requestID.String()),
		slog.String("team_id", team.ID.String()),
		slog.String("user_id", req.RequesterID.String()),
	)
	s.notifier.UserNotified(req.RequesterID, models.Notification{
		Type:      models.NotificationJoinRequestApproved,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Message:   fmt.Sprintf("Your request to join %s was approved", team.Name),
		CreatedAt: time.Now().UTC(),
	})

	view, err := publishTeam(ctx, s.reconciler, s.notifier, team)
	if err != nil {
		return nil, err
	}
	propagateRegistration(ctx, s.syncer, view, s.logger)
	return view, nil
}

func (s *joinRequestService) RejectJoinRequest(ctx context.Context, auth models.AuthContext, requestID uuid.UUID) (*models.JoinRequest, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	team, err := getTeam(ctx, s.teamRepo, req.TeamID)
	if err != nil {
		return nil, err
	}
	if err := requireLeader(auth, team); err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, requestID, models.JoinRequestRejected)
	if err != nil {
		return nil, err
	}

	s.notifier.UserNotified(req.RequesterID, models.Notification{
		Type:      models.NotificationJoinRequestRejected,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Message:   fmt.Sprintf("Your request to join %s was declined", team.Name),
		CreatedAt: time.Now().UTC(),
	})
	return updated, nil
}

func (s *joinRequestService) ListIncoming(ctx context.Context, auth models.AuthContext) ([]*models.JoinRequest, error) {
	teams, err := s.teamRepo.ListByLeader(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams led by %s: %w", auth.UserID, err)
	}

	byID := make(map[uuid.UUID]*models.Team, len(teams))
	ids := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	requests, err := s.joinRequestRepo.ListPendingByTeams(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	for _, req := range requests {
		req.Team = byID[req.TeamID]
	}
	return requests, nil
}

func (s *joinRequestService) ListMine(ctx context.Context, auth models.AuthContext) ([]*models.JoinRequest, error) {
	requests, err := s.joinRequestRepo.ListByRequester(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests of user %s: %w", auth.UserID, err)
	}
	return requests, nil
}

func (s *joinRequestService) getRequest(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	req, err := s.joinRequestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrJoinRequestNotFound) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, fmt.Errorf("failed to get join request %s: %w", id, err)
	}
	return req, nil
}

func (s *joinRequestService) transition(ctx context.Context, id uuid.UUID, to models.JoinRequestStatus) (*models.JoinRequest, error) {
	req, err := s.joinRequestRepo.Transition(ctx, id, to)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrJoinRequestNotPending):
			return nil, ErrJoinRequestNotPending
		case errors.Is(err, repositories.ErrJoinRequestNotFound):
			return nil, ErrJoinRequestNotFound
		default:
			return nil, fmt.Errorf("failed to mark join request %s as %s: %w", id, to, err)
		}
	}
	return req, nil
}
