package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

// SyncService materializes personal registrations for members of paid teams.
type SyncService interface {
	// SyncTeam is idempotent. One member failing does not stop the others.
	SyncTeam(ctx context.Context, view *models.ReconciledTeamView) models.TeamSyncResult
	// SyncLeaderTeams syncs every registered team the caller leads.
	SyncLeaderTeams(ctx context.Context, auth models.AuthContext) (*models.SyncReport, error)
}

type syncService struct {
	teamRepo         repositories.TeamRepository
	registrationRepo repositories.RegistrationRepository
	reconciler       ReconciliationService
	logger           *slog.Logger
}

func NewSyncService(
	teamRepo repositories.TeamRepository,
	registrationRepo repositories.RegistrationRepository,
	reconciler ReconciliationService,
	logger *slog.Logger,
) SyncService {
	return &syncService{
		teamRepo:         teamRepo,
		registrationRepo: registrationRepo,
		reconciler:       reconciler,
		logger:           logger,
	}
}

func (s *syncService) SyncTeam(ctx context.Context, view *models.ReconciledTeamView) models.TeamSyncResult {
	result := models.TeamSyncResult{TeamID: view.ID, TeamName: view.Name}
	if !view.IsRegistered {
		result.Skipped = true
		return result
	}

	transactionID := fmt.Sprintf("team-%s-sync", view.ID)
	if view.TransactionID != nil && *view.TransactionID != "" {
		transactionID = *view.TransactionID
	}
	var amount float64
	if view.TeamPaymentAmount != nil {
		amount = *view.TeamPaymentAmount
	}

	paid := make(map[uuid.UUID]bool, len(view.PaidMemberIDs))
	for _, id := range view.PaidMemberIDs {
		paid[id] = true
	}

	result.Members = make([]models.MemberSyncResult, 0, len(view.Members))
	for _, m := range view.Members {
		if paid[m.UserID] {
			result.Members = append(result.Members, models.MemberSyncResult{UserID: m.UserID, Outcome: models.SyncPaidPersonally})
			continue
		}

		reg := &models.MemberRegistration{
			UserID:        m.UserID,
			TeamID:        view.ID,
			EventRef:      view.EventRef,
			EventKey:      view.EventKey,
			TeamName:      view.Name,
			TransactionID: transactionID,
			Amount:        amount,
			Derived:       true,
		}
		res, err := s.registrationRepo.Upsert(ctx, reg)
		if err != nil {
			s.logger.Warn("failed to sync member registration",
				slog.String("team_id", view.ID.String()),
				slog.String("user_id", m.UserID.String()),
				slog.Any("error", err),
			)
			result.Members = append(result.Members, models.MemberSyncResult{UserID: m.UserID, Outcome: models.SyncFailed, Error: err.Error()})
			continue
		}

		outcome := models.SyncAlreadyPresent
		switch res {
		case repositories.UpsertInserted:
			outcome = models.SyncCreated
		case repositories.UpsertRepaired:
			outcome = models.SyncRepaired
		}
		result.Members = append(result.Members, models.MemberSyncResult{UserID: m.UserID, Outcome: outcome})
	}

	if created := result.Created(); created > 0 {
		s.logger.Info("member registrations synced",
			slog.String("team_id", view.ID.String()),
			slog.Int("created", created),
		)
	}
	return result
}

func (s *syncService) SyncLeaderTeams(ctx context.Context, auth models.AuthContext) (*models.SyncReport, error) {
	teams, err := s.teamRepo.ListByLeader(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams led by %s: %w", auth.UserID, err)
	}
	views, err := s.reconciler.ReconcileTeams(ctx, teams)
	if err != nil {
		return nil, err
	}

	report := &models.SyncReport{Teams: make([]models.TeamSyncResult, 0, len(views))}
	for _, view := range views {
		result := s.SyncTeam(ctx, view)
		report.Created += result.Created()
		for _, m := range result.Members {
			if m.Outcome == models.SyncFailed {
				report.Failed++
			}
		}
		report.Teams = append(report.Teams, result)
	}
	return report, nil
}
