package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

const searchResultLimit = 20

// TxManager runs fn atomically. Repository calls made with the ctx passed to fn join the transaction.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier receives the results of committed mutations, e.g. to push them to websocket clients.
type Notifier interface {
	TeamUpdated(view *models.ReconciledTeamView)
	TeamDisbanded(teamID uuid.UUID)
	UserNotified(userID uuid.UUID, n models.Notification)
}

type noopNotifier struct{}

func (noopNotifier) TeamUpdated(*models.ReconciledTeamView)      {}
func (noopNotifier) TeamDisbanded(uuid.UUID)                     {}
func (noopNotifier) UserNotified(uuid.UUID, models.Notification) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// getTeam loads a team and translates repository errors.
func getTeam(ctx context.Context, teams repositories.TeamRepository, teamID uuid.UUID) (*models.Team, error) {
	team, err := teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}
	return team, nil
}

// getActiveTeamForUpdate loads and locks a team that has not been disbanded.
func getActiveTeamForUpdate(ctx context.Context, teams repositories.TeamRepository, teamID uuid.UUID) (*models.Team, error) {
	team, err := teams.GetByIDForUpdate(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to lock team %s: %w", teamID, err)
	}
	if !team.IsActive {
		return nil, ErrTeamDisbanded
	}
	return team, nil
}

func requireLeader(auth models.AuthContext, team *models.Team) error {
	if team.LeaderID != auth.UserID {
		return ErrLeaderOnly
	}
	return nil
}

// translateMemberError maps store failures of MemberRepository.Add to service errors.
func translateMemberError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamFull):
		return ErrTeamFull
	case errors.Is(err, repositories.ErrMemberExists):
		return ErrAlreadyMember
	case errors.Is(err, repositories.ErrTeamInactive):
		return ErrTeamDisbanded
	case errors.Is(err, repositories.ErrMemberRefInvalid):
		return ErrUserNotFound
	default:
		return fmt.Errorf("failed to add team member: %w", err)
	}
}

// closePendingFor cancels what a new member still has pending for the team on the other path,
// so a stale invitation stops holding a slot and a stale join request does not linger.
func closePendingFor(ctx context.Context, invitations repositories.InvitationRepository, joinRequests repositories.JoinRequestRepository, teamID, userID uuid.UUID) error {
	if _, err := invitations.CancelPendingForInvitee(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to close invitation of user %s: %w", userID, err)
	}
	if _, err := joinRequests.CancelPendingForRequester(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to close join request of user %s: %w", userID, err)
	}
	return nil
}

func normalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < 2 {
		return "", ErrSearchQueryTooShort
	}
	return q, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func publishTeam(ctx context.Context, reconciler ReconciliationService, notifier Notifier, team *models.Team) (*models.ReconciledTeamView, error) {
	view, err := reconciler.ReconcileTeam(ctx, team)
	if err != nil {
		return nil, err
	}
	notifier.TeamUpdated(view)
	return view, nil
}

// propagateRegistration gives a newly joined member of an already paid team a registration.
// Failures are logged only: the membership change has committed.
func propagateRegistration(ctx context.Context, syncer SyncService, view *models.ReconciledTeamView, logger *slog.Logger) {
	if syncer == nil || !view.IsRegistered {
		return
	}
	result := syncer.SyncTeam(ctx, view)
	for _, m := range result.Members {
		if m.Outcome == models.SyncFailed {
			logger.Warn("registration propagation failed",
				slog.String("team_id", view.ID.String()),
				slog.String("user_id", m.UserID.String()),
				slog.String("error", m.Error),
			)
		}
	}
}
