package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

func TestListMyRegistrationsMergesSources(t *testing.T) {
	h := newHarness(t)
	user := h.user("Asha")
	amount := 1000.0
	personalTx := "p-1"
	h.store.PutPaymentRecord(models.PaymentRecord{
		UserID:        user.UserID,
		EventKey:      "evt-quiz",
		PaymentStatus: models.PaymentPaid,
		PaymentAmount: &amount,
		TransactionID: &personalTx,
		CreatedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})

	leader := h.user("Bilal")
	team := h.createTeam(t, leader, "Moonwalkers", "dance", 4)
	registrations := h.store.Registrations()
	for _, reg := range []*models.MemberRegistration{
		{UserID: user.UserID, TeamID: team.ID, EventRef: "dance", EventKey: "evt-dance", TeamName: "Moonwalkers", TransactionID: "tx-team", Amount: 4000, Derived: true},
		// same event and transaction as the personal payment
		{UserID: user.UserID, TeamID: uuid.New(), EventRef: "quiz", EventKey: "evt-quiz", TransactionID: "p-1", Amount: 1000, Derived: true},
	} {
		if _, err := registrations.Upsert(context.Background(), reg); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	entries, err := h.registration.ListMyRegistrations(context.Background(), user)
	if err != nil {
		t.Fatalf("ListMyRegistrations: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].Source != models.RegistrationSourceTeamSync || entries[0].TeamName != "Moonwalkers" || entries[0].TeamID == nil || *entries[0].TeamID != team.ID {
		t.Fatalf("newest entry must be the team registration, got %+v", entries[0])
	}
	if entries[1].Source != models.RegistrationSourcePayment || entries[1].TransactionID != "p-1" || *entries[1].Amount != 1000 {
		t.Fatalf("unexpected personal entry %+v", entries[1])
	}
}

func TestListMyRegistrationsPaymentSourceDown(t *testing.T) {
	h := newHarness(t, withPayments(failingPayments{}))
	_, err := h.registration.ListMyRegistrations(context.Background(), h.user("Asha"))
	assertErrorIs(t, err, ErrPaymentSourceUnavailable)
	assertErrorIs(t, err, ErrExternalSource)
}
