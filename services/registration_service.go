package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
)

type RegistrationService interface {
	// ListMyRegistrations merges the caller's own PAID records with registrations derived from team payments.
	ListMyRegistrations(ctx context.Context, auth models.AuthContext) ([]models.RegistrationEntry, error)
}

type registrationService struct {
	payments         repositories.PaymentRecordSource
	registrationRepo repositories.RegistrationRepository
}

func NewRegistrationService(payments repositories.PaymentRecordSource, registrationRepo repositories.RegistrationRepository) RegistrationService {
	return &registrationService{
		payments:         payments,
		registrationRepo: registrationRepo,
	}
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, auth models.AuthContext) ([]models.RegistrationEntry, error) {
	records, err := s.payments.ListPaidByUser(ctx, auth.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentSourceUnavailable) {
			return nil, fmt.Errorf("%w: %w", ErrPaymentSourceUnavailable, err)
		}
		return nil, fmt.Errorf("failed to list payments of user %s: %w", auth.UserID, err)
	}
	derived, err := s.registrationRepo.ListByUser(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations of user %s: %w", auth.UserID, err)
	}

	type key struct{ event, tx string }
	seen := make(map[key]bool, len(records))
	entries := make([]models.RegistrationEntry, 0, len(records)+len(derived))
	for _, rec := range records {
		seen[key{rec.EventKey, derefString(rec.TransactionID)}] = true
		entries = append(entries, models.RegistrationEntry{
			EventKey:      rec.EventKey,
			TransactionID: derefString(rec.TransactionID),
			Amount:        rec.PaymentAmount,
			Source:        models.RegistrationSourcePayment,
			CreatedAt:     rec.CreatedAt,
		})
	}
	for _, reg := range derived {
		if seen[key{reg.EventKey, reg.TransactionID}] {
			continue
		}
		teamID, amount := reg.TeamID, reg.Amount
		entries = append(entries, models.RegistrationEntry{
			EventKey:      reg.EventKey,
			TeamID:        &teamID,
			TeamName:      reg.TeamName,
			TransactionID: reg.TransactionID,
			Amount:        &amount,
			Derived:       reg.Derived,
			Source:        models.RegistrationSourceTeamSync,
			CreatedAt:     reg.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}
