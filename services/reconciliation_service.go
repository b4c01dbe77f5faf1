package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"golang.org/x/sync/errgroup"
)

const defaultReconcileConcurrency = 4

// ReconciliationService проецирует команду на журнал платежей. Состояние команды не изменяет.
type ReconciliationService interface {
	ReconcileTeam(ctx context.Context, team *models.Team) (*models.ReconciledTeamView, error)
	// ReconcileTeams keeps the input order. A failed payment lookup degrades only its own team.
	ReconcileTeams(ctx context.Context, teams []*models.Team) ([]*models.ReconciledTeamView, error)
}

type reconciliationService struct {
	memberRepo  repositories.MemberRepository
	payments    repositories.PaymentRecordSource
	events      repositories.EventCatalog
	concurrency int
	logger      *slog.Logger
}

func NewReconciliationService(
	memberRepo repositories.MemberRepository,
	payments repositories.PaymentRecordSource,
	events repositories.EventCatalog,
	concurrency int,
	logger *slog.Logger,
) ReconciliationService {
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	return &reconciliationService{
		memberRepo:  memberRepo,
		payments:    payments,
		events:      events,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *reconciliationService) ReconcileTeam(ctx context.Context, team *models.Team) (*models.ReconciledTeamView, error) {
	members, err := s.memberRepo.ListActive(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %s: %w", team.ID, err)
	}

	view := newTeamView(team, members)
	if len(members) == 0 {
		return view, nil
	}

	event := s.lookupEvent(ctx, team)
	scope := newEventScope(team, event)
	view.EventKey = scope.eventID

	records, err := s.payments.ListPaid(ctx, models.PaymentQuery{
		UserIDs:   view.MemberIDs(),
		EventKeys: scope.keys(),
	})
	if err != nil {
		s.logger.Warn("payment lookup failed, reporting team as unregistered",
			slog.String("team_id", team.ID.String()),
			slog.Any("error", fmt.Errorf("%w: %w", ErrPaymentSourceUnavailable, err)),
		)
		return view, nil
	}

	applyPayments(view, matchTeamPayments(records, members, scope), event)
	return view, nil
}

// lookupEvent returns nil when the catalog has no entry or cannot be reached.
func (s *reconciliationService) lookupEvent(ctx context.Context, team *models.Team) *models.Event {
	event, err := s.events.GetByRef(ctx, team.EventRef)
	if err != nil {
		if !errors.Is(err, repositories.ErrEventNotFound) {
			s.logger.Warn("event catalog lookup failed, matching payments by team reference and name only",
				slog.String("team_id", team.ID.String()),
				slog.String("event_ref", team.EventRef),
				slog.Any("error", err),
			)
		}
		return nil
	}
	return event
}

func (s *reconciliationService) ReconcileTeams(ctx context.Context, teams []*models.Team) ([]*models.ReconciledTeamView, error) {
	views := make([]*models.ReconciledTeamView, len(teams))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, team := range teams {
		i, team := i, team
		g.Go(func() error {
			view, err := s.ReconcileTeam(gctx, team)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}
