package services

import (
	"context"
	"testing"

	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

func TestReconcileLeaderPaymentByTeamName(t *testing.T) {
	h := newHarness(t)
	h.event("dance", "evt-dance", 2, 4, 2000)
	leader, member := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Moonwalkers", "dance", 4)
	h.addMember(t, leader, team.ID, member)
	h.pay(leader, "Moonwalkers", 4000, "tx-1")

	view := h.view(t, leader, team.ID)
	if !view.IsRegistered || view.RegisteredCount != 1 {
		t.Fatalf("registered=%v count=%d, want true 1", view.IsRegistered, view.RegisteredCount)
	}
	if view.TeamPaymentAmount == nil || *view.TeamPaymentAmount != 4000 {
		t.Fatalf("team payment amount = %v, want 4000", view.TeamPaymentAmount)
	}
	if view.TransactionID == nil || *view.TransactionID != "tx-1" {
		t.Fatalf("transaction id = %v", view.TransactionID)
	}
	if view.RegistrationState != models.RegistrationFull || view.PaidSlots != 2 {
		t.Fatalf("state=%s paid slots=%d, want full 2", view.RegistrationState, view.PaidSlots)
	}
	if len(view.PaidMemberIDs) != 1 || view.PaidMemberIDs[0] != leader.UserID {
		t.Fatalf("paid members = %v", view.PaidMemberIDs)
	}
}

func TestReconcileMemberAddedAfterPayment(t *testing.T) {
	h := newHarness(t)
	h.event("dance", "evt-dance", 2, 4, 2000)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Moonwalkers", "dance", 4)
	h.addMember(t, leader, team.ID, a)
	h.pay(leader, "Moonwalkers", 4000, "tx-1")

	view := h.addMember(t, leader, team.ID, b)
	if !view.IsRegistered || view.RegisteredCount != 1 || view.ActiveMemberCount != 3 {
		t.Fatalf("registered=%v count=%d active=%d", view.IsRegistered, view.RegisteredCount, view.ActiveMemberCount)
	}
	if view.RegistrationState != models.RegistrationPartial || view.NewMembersToPay != 1 {
		t.Fatalf("state=%s new members to pay=%d, want partial 1", view.RegistrationState, view.NewMembersToPay)
	}
	if view.RegisteredCount > view.ActiveMemberCount {
		t.Fatalf("registered count %d exceeds active %d", view.RegisteredCount, view.ActiveMemberCount)
	}
}

func TestReconcileEventKeyMatching(t *testing.T) {
	tests := []struct {
		name       string
		paymentKey string
		registered bool
	}{
		{"catalog event key", "evt-quiz", true},
		{"team event reference", "quiz", true},
		{"team name", "Brainiacs", true},
		{"other event", "evt-dance", false},
		{"empty key", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.event("quiz", "evt-quiz", 2, 4, 0)
			leader := h.user("Asha")
			team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
			h.pay(leader, tt.paymentKey, 1000, "tx-1")

			view := h.view(t, leader, team.ID)
			if view.IsRegistered != tt.registered {
				t.Fatalf("registered = %v, want %v", view.IsRegistered, tt.registered)
			}
			if view.EventKey != "evt-quiz" {
				t.Fatalf("event key = %q", view.EventKey)
			}
		})
	}
}

func TestReconcileIgnoresForeignAndUnpaidRecords(t *testing.T) {
	h := newHarness(t)
	leader, outsider := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)

	h.pay(outsider, "Brainiacs", 1000, "tx-outsider")
	pending := 1000.0
	h.store.PutPaymentRecord(models.PaymentRecord{
		UserID:        leader.UserID,
		EventKey:      "quiz",
		PaymentStatus: models.PaymentPending,
		PaymentAmount: &pending,
	})

	view := h.view(t, leader, team.ID)
	if view.IsRegistered || view.RegisteredCount != 0 || view.TeamPaymentAmount != nil {
		t.Fatalf("team must stay unregistered, got %+v", view)
	}
	if view.RegistrationState != models.RegistrationUnregistered {
		t.Fatalf("state = %s", view.RegistrationState)
	}
}

func TestReconcileKeepsLargestAmount(t *testing.T) {
	h := newHarness(t)
	h.event("quiz", "evt-quiz", 2, 4, 1000)
	leader, member := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.addMember(t, leader, team.ID, member)
	h.pay(leader, "evt-quiz", 1000, "tx-small")
	h.pay(member, "quiz", 3000, "tx-bulk")

	view := h.view(t, leader, team.ID)
	if view.RegisteredCount != 2 {
		t.Fatalf("registered count = %d, want 2", view.RegisteredCount)
	}
	if *view.TeamPaymentAmount != 3000 || *view.TransactionID != "tx-bulk" {
		t.Fatalf("amount=%v tx=%v, want the largest payment", *view.TeamPaymentAmount, *view.TransactionID)
	}
	if view.PaidSlots != 3 || view.RegistrationState != models.RegistrationFull {
		t.Fatalf("paid slots=%d state=%s", view.PaidSlots, view.RegistrationState)
	}
}

func TestReconcileWithoutPriceCountsPayingMembers(t *testing.T) {
	h := newHarness(t)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.addMember(t, leader, team.ID, a)
	h.addMember(t, leader, team.ID, b)
	h.pay(leader, "quiz", 500, "tx-1")
	h.pay(a, "quiz", 500, "tx-2")

	view := h.view(t, leader, team.ID)
	if view.PaidSlots != 2 || view.NewMembersToPay != 1 || view.RegistrationState != models.RegistrationPartial {
		t.Fatalf("paid slots=%d to pay=%d state=%s", view.PaidSlots, view.NewMembersToPay, view.RegistrationState)
	}
}

func TestReconcileTeamWithoutMembersIsUnregistered(t *testing.T) {
	h := newHarness(t)
	payer := h.user("Asha")
	h.pay(payer, "Ghost", 1000, "tx-1")

	view, err := h.reconciler.ReconcileTeam(context.Background(), &models.Team{ID: uuid.New(), Name: "Ghost", EventRef: "quiz"})
	if err != nil {
		t.Fatalf("ReconcileTeam: %v", err)
	}
	if view.IsRegistered || view.RegisteredCount != 0 || view.ActiveMemberCount != 0 {
		t.Fatalf("empty team must never be registered, got %+v", view)
	}
}

func TestReconcileDegradesWhenPaymentsUnavailable(t *testing.T) {
	h := newHarness(t, withPayments(failingPayments{}))
	leader := h.user("Asha")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)

	view := h.view(t, leader, team.ID)
	if view.IsRegistered || view.RegistrationState != models.RegistrationUnregistered {
		t.Fatalf("team must be reported unregistered, got %+v", view)
	}
	if view.ActiveMemberCount != 1 {
		t.Fatalf("membership must still be reported, active = %d", view.ActiveMemberCount)
	}
}

func TestReconcileTeamsKeepsOrder(t *testing.T) {
	h := newHarness(t)
	teams := make([]*models.Team, 0, 5)
	for i, name := range []string{"A", "B", "C", "D", "E"} {
		leader := h.user(name)
		view := h.createTeam(t, leader, "Team "+name, "quiz", 4)
		if i%2 == 0 {
			h.pay(leader, "quiz", 1000, "tx-"+name)
		}
		teams = append(teams, view.Team)
	}

	views, err := h.reconciler.ReconcileTeams(context.Background(), teams)
	if err != nil {
		t.Fatalf("ReconcileTeams: %v", err)
	}
	if len(views) != len(teams) {
		t.Fatalf("got %d views, want %d", len(views), len(teams))
	}
	for i, view := range views {
		if view.ID != teams[i].ID {
			t.Fatalf("view %d belongs to team %s, want %s", i, view.Name, teams[i].Name)
		}
		if view.IsRegistered != (i%2 == 0) {
			t.Fatalf("team %s registered = %v", view.Name, view.IsRegistered)
		}
	}
}
