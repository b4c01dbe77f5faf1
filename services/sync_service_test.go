package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

// flakyRegistrations fails upserts for a single user.
type flakyRegistrations struct {
	repositories.RegistrationRepository
	failFor uuid.UUID
}

func (r flakyRegistrations) Upsert(ctx context.Context, reg *models.MemberRegistration) (repositories.UpsertResult, error) {
	if reg.UserID == r.failFor {
		return repositories.UpsertUnchanged, errors.New("disk full")
	}
	return r.RegistrationRepository.Upsert(ctx, reg)
}

func outcomes(result models.TeamSyncResult) map[uuid.UUID]models.MemberSyncOutcome {
	out := make(map[uuid.UUID]models.MemberSyncOutcome, len(result.Members))
	for _, m := range result.Members {
		out[m.UserID] = m.Outcome
	}
	return out
}

func TestSyncTeamIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.event("quiz", "evt-quiz", 2, 4, 1000)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.addMember(t, leader, team.ID, a)
	h.addMember(t, leader, team.ID, b)
	h.pay(leader, "Brainiacs", 3000, "tx-1")

	view := h.view(t, leader, team.ID)
	first := h.sync.SyncTeam(context.Background(), view)
	if first.Skipped || first.Created() != 2 {
		t.Fatalf("first sync created %d (skipped=%v), want 2", first.Created(), first.Skipped)
	}
	got := outcomes(first)
	if got[leader.UserID] != models.SyncPaidPersonally || got[a.UserID] != models.SyncCreated || got[b.UserID] != models.SyncCreated {
		t.Fatalf("unexpected outcomes %v", got)
	}

	second := h.sync.SyncTeam(context.Background(), view)
	if second.Created() != 0 {
		t.Fatalf("second sync created %d rows", second.Created())
	}
	if outcomes(second)[a.UserID] != models.SyncAlreadyPresent {
		t.Fatalf("unexpected outcomes %v", outcomes(second))
	}

	regs, err := h.store.Registrations().ListByTeam(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("got %d registrations, want 2", len(regs))
	}
	for _, reg := range regs {
		if reg.UserID == leader.UserID {
			t.Fatalf("member who paid personally must not get a derived registration")
		}
		if reg.TransactionID != "tx-1" || reg.Amount != 3000 || !reg.Derived || reg.EventKey != "evt-quiz" {
			t.Fatalf("unexpected registration %+v", reg)
		}
	}
}

func TestSyncTeamSkipsUnregisteredTeam(t *testing.T) {
	h := newHarness(t)
	leader := h.user("Asha")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)

	result := h.sync.SyncTeam(context.Background(), h.view(t, leader, team.ID))
	if !result.Skipped || len(result.Members) != 0 {
		t.Fatalf("unregistered team must be skipped, got %+v", result)
	}
}

func TestSyncTeamFallbackTransactionID(t *testing.T) {
	h := newHarness(t)
	leader, member := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.addMember(t, leader, team.ID, member)
	amount := 2000.0
	h.store.PutPaymentRecord(models.PaymentRecord{
		UserID:        leader.UserID,
		EventKey:      "quiz",
		PaymentStatus: models.PaymentPaid,
		PaymentAmount: &amount,
	})

	h.sync.SyncTeam(context.Background(), h.view(t, leader, team.ID))

	regs, err := h.store.Registrations().ListByUser(context.Background(), member.UserID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	want := fmt.Sprintf("team-%s-sync", team.ID)
	if len(regs) != 1 || regs[0].TransactionID != want {
		t.Fatalf("registrations = %+v, want transaction id %s", regs, want)
	}
}

func TestSyncTeamRepairsZeroAmount(t *testing.T) {
	h := newHarness(t)
	leader, member := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.addMember(t, leader, team.ID, member)
	h.pay(leader, "quiz", 2000, "tx-1")

	_, err := h.store.Registrations().Upsert(context.Background(), &models.MemberRegistration{
		UserID:        member.UserID,
		TeamID:        team.ID,
		EventRef:      "quiz",
		TeamName:      "Brainiacs",
		TransactionID: "tx-1",
		Derived:       true,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	result := h.sync.SyncTeam(context.Background(), h.view(t, leader, team.ID))
	if outcomes(result)[member.UserID] != models.SyncRepaired {
		t.Fatalf("unexpected outcomes %v", outcomes(result))
	}
	regs, _ := h.store.Registrations().ListByUser(context.Background(), member.UserID)
	if len(regs) != 1 || regs[0].Amount != 2000 {
		t.Fatalf("registrations = %+v, want amount 2000", regs)
	}
}

func TestSyncTeamIsolatesMemberFailures(t *testing.T) {
	h := newHarness(t)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.addMember(t, leader, team.ID, a)
	h.addMember(t, leader, team.ID, b)
	h.pay(leader, "quiz", 3000, "tx-1")

	syncer := NewSyncService(h.store.Teams(), flakyRegistrations{RegistrationRepository: h.store.Registrations(), failFor: a.UserID}, h.reconciler, h.logger)
	result := syncer.SyncTeam(context.Background(), h.view(t, leader, team.ID))

	got := outcomes(result)
	if got[a.UserID] != models.SyncFailed || got[b.UserID] != models.SyncCreated {
		t.Fatalf("unexpected outcomes %v", got)
	}
	for _, m := range result.Members {
		if m.UserID == a.UserID && m.Error == "" {
			t.Fatalf("failed member must carry the error")
		}
	}
}

func TestAcceptedMemberOfPaidTeamGetsRegistration(t *testing.T) {
	h := newHarness(t)
	leader, invitee := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.pay(leader, "quiz", 2000, "tx-1")

	inv, err := h.invitations.SendInvitation(context.Background(), leader, team.ID, invitee.UserID)
	if err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}
	if _, err := h.invitations.AcceptInvitation(context.Background(), invitee, inv.ID); err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}

	regs, err := h.store.Registrations().ListByUser(context.Background(), invitee.UserID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(regs) != 1 || regs[0].TeamID != team.ID || regs[0].TransactionID != "tx-1" {
		t.Fatalf("registrations = %+v", regs)
	}
}

func TestSyncLeaderTeams(t *testing.T) {
	h := newHarness(t)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	paid := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	unpaid := h.createTeam(t, leader, "Movers", "dance", 4)
	h.addMember(t, leader, paid.ID, a)
	h.addMember(t, leader, unpaid.ID, b)
	h.pay(leader, "quiz", 2000, "tx-1")

	report, err := h.sync.SyncLeaderTeams(context.Background(), leader)
	if err != nil {
		t.Fatalf("SyncLeaderTeams: %v", err)
	}
	if len(report.Teams) != 2 || report.Created != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, team := range report.Teams {
		if team.TeamID == unpaid.ID && !team.Skipped {
			t.Fatalf("unpaid team must be skipped")
		}
	}

	again, err := h.sync.SyncLeaderTeams(context.Background(), leader)
	if err != nil {
		t.Fatalf("SyncLeaderTeams: %v", err)
	}
	if again.Created != 0 {
		t.Fatalf("second run created %d rows", again.Created)
	}
}
