package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

// PaymentGateway starts a checkout and returns the URL the payer is redirected to.
// The resulting PAID record later appears in the payment log under req.EventKey.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req models.PaymentRequest) (string, error)
}

type PaymentService interface {
	InitiateTeamPayment(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) (*models.PaymentInitiation, error)
}

type paymentService struct {
	teamRepo   repositories.TeamRepository
	events     repositories.EventCatalog
	reconciler ReconciliationService
	gateway    PaymentGateway
	returnURL  string
	logger     *slog.Logger
}

// NewPaymentService accepts a nil gateway; initiation then fails with ErrPaymentGatewayDisabled.
func NewPaymentService(
	teamRepo repositories.TeamRepository,
	events repositories.EventCatalog,
	reconciler ReconciliationService,
	gateway PaymentGateway,
	returnURL string,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		teamRepo:   teamRepo,
		events:     events,
		reconciler: reconciler,
		gateway:    gateway,
		returnURL:  returnURL,
		logger:     logger,
	}
}

// InitiateTeamPayment charges for the whole roster of an unregistered team,
// or only for members who joined after a partial payment.
func (s *paymentService) InitiateTeamPayment(ctx context.Context, auth models.AuthContext, teamID uuid.UUID) (*models.PaymentInitiation, error) {
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

	event, err := s.events.GetByRef(ctx, team.EventRef)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrNothingToPay
		}
		return nil, fmt.Errorf("%w: %w", ErrEventCatalogUnavailable, err)
	}
	if event.PricePerMember <= 0 {
		return nil, ErrNothingToPay
	}

	view, err := s.reconciler.ReconcileTeam(ctx, team)
	if err != nil {
		return nil, err
	}

	var count int
	switch view.RegistrationState {
	case models.RegistrationFull:
		return nil, ErrAlreadyRegistered
	case models.RegistrationPartial:
		count = view.NewMembersToPay
	default:
		if view.ActiveMemberCount < team.MinMembers {
			return nil, ErrTeamTooSmall
		}
		count = view.ActiveMemberCount
	}
	if count <= 0 {
		return nil, ErrAlreadyRegistered
	}

	if s.gateway == nil {
		return nil, ErrPaymentGatewayDisabled
	}

	amount := math.Round(event.PricePerMember*float64(count)*100) / 100
	redirectURL, err := s.gateway.InitiatePayment(ctx, models.PaymentRequest{
		UserID:      auth.UserID,
		TeamID:      team.ID,
		EventKey:    event.Key,
		TeamName:    team.Name,
		MemberCount: count,
		Amount:      amount,
		ReturnURL:   s.returnURL,
	})
	if err != nil {
		s.logger.Error("payment initiation failed",
			slog.String("team_id", team.ID.String()),
			slog.Int("member_count", count),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", ErrPaymentInitiationFailed, err)
	}

	s.logger.Info("team payment initiated",
		slog.String("team_id", team.ID.String()),
		slog.String("event_key", event.Key),
		slog.Int("member_count", count),
		slog.Float64("amount", amount),
	)
	return &models.PaymentInitiation{
		TeamID:      team.ID,
		RedirectURL: redirectURL,
		MemberCount: count,
		Amount:      amount,
	}, nil
}
