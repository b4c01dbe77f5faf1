package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Dosada05/festival-teams/models"
)

func TestSendJoinRequest(t *testing.T) {
	h := newHarness(t)
	leader, member, requester := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Quad", "quiz", 4)
	h.addMember(t, leader, team.ID, member)

	req, err := h.joinRequests.SendJoinRequest(context.Background(), requester, team.ID, "  I build robots  ")
	if err != nil {
		t.Fatalf("SendJoinRequest: %v", err)
	}
	if req.Status != models.JoinRequestPending || req.Message == nil || *req.Message != "I build robots" {
		t.Fatalf("unexpected request %+v", req)
	}
	if !h.notifier.received(leader.UserID, models.NotificationJoinRequestReceived) {
		t.Fatalf("leader was not notified")
	}

	_, err = h.joinRequests.SendJoinRequest(context.Background(), requester, team.ID, "")
	assertErrorIs(t, err, ErrJoinRequestExists)
	_, err = h.joinRequests.SendJoinRequest(context.Background(), member, team.ID, "")
	assertErrorIs(t, err, ErrAlreadyMember)
	_, err = h.joinRequests.SendJoinRequest(context.Background(), h.user("Dana"), team.ID, strings.Repeat("x", 501))
	assertErrorIs(t, err, ErrValidation)
}

func TestJoinRequestCanBeResentAfterDecision(t *testing.T) {
	h := newHarness(t)
	leader, requester := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Quad", "quiz", 4)

	first, err := h.joinRequests.SendJoinRequest(context.Background(), requester, team.ID, "")
	if err != nil {
		t.Fatalf("SendJoinRequest: %v", err)
	}
	_, err = h.joinRequests.RejectJoinRequest(context.Background(), requester, first.ID)
	assertErrorIs(t, err, ErrLeaderOnly)

	rejected, err := h.joinRequests.RejectJoinRequest(context.Background(), leader, first.ID)
	if err != nil {
		t.Fatalf("RejectJoinRequest: %v", err)
	}
	if rejected.Status != models.JoinRequestRejected {
		t.Fatalf("status = %s", rejected.Status)
	}
	if !h.notifier.received(requester.UserID, models.NotificationJoinRequestRejected) {
		t.Fatalf("requester was not notified")
	}

	second, err := h.joinRequests.SendJoinRequest(context.Background(), requester, team.ID, "")
	if err != nil {
		t.Fatalf("resend after reject: %v", err)
	}
	_, err = h.joinRequests.CancelJoinRequest(context.Background(), leader, second.ID)
	assertErrorIs(t, err, ErrRequesterOnly)
	if _, err := h.joinRequests.CancelJoinRequest(context.Background(), requester, second.ID); err != nil {
		t.Fatalf("CancelJoinRequest: %v", err)
	}
	_, err = h.joinRequests.AcceptJoinRequest(context.Background(), leader, second.ID)
	assertErrorIs(t, err, ErrJoinRequestNotPending)

	if _, err := h.joinRequests.SendJoinRequest(context.Background(), requester, team.ID, ""); err != nil {
		t.Fatalf("resend after cancel: %v", err)
	}
}

func TestAcceptJoinRequest(t *testing.T) {
	h := newHarness(t)
	leader, requester := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Quad", "quiz", 4)

	req, err := h.joinRequests.SendJoinRequest(context.Background(), requester, team.ID, "")
	if err != nil {
		t.Fatalf("SendJoinRequest: %v", err)
	}
	_, err = h.joinRequests.AcceptJoinRequest(context.Background(), requester, req.ID)
	assertErrorIs(t, err, ErrLeaderOnly)

	view, err := h.joinRequests.AcceptJoinRequest(context.Background(), leader, req.ID)
	if err != nil {
		t.Fatalf("AcceptJoinRequest: %v", err)
	}
	if view.ActiveMemberCount != 2 {
		t.Fatalf("active members = %d, want 2", view.ActiveMemberCount)
	}
	if !h.notifier.received(requester.UserID, models.NotificationJoinRequestApproved) {
		t.Fatalf("requester was not notified")
	}

	mine, err := h.joinRequests.ListMine(context.Background(), requester)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != models.JoinRequestApproved || mine[0].Team == nil || mine[0].Team.ID != team.ID {
		t.Fatalf("unexpected requests %+v", mine)
	}
}

func TestConcurrentJoinRequestAcceptsForLastSlot(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newHarness(t)
		leader, member, b, c := h.user("Asha"), h.user("Bilal"), h.user("Chen"), h.user("Dana")
		team := h.createTeam(t, leader, "Trio", "quiz", 3)
		h.addMember(t, leader, team.ID, member)

		reqB, err := h.joinRequests.SendJoinRequest(context.Background(), b, team.ID, "")
		if err != nil {
			t.Fatalf("SendJoinRequest: %v", err)
		}
		reqC, err := h.joinRequests.SendJoinRequest(context.Background(), c, team.ID, "")
		if err != nil {
			t.Fatalf("SendJoinRequest: %v", err)
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})
		for n, req := range []*models.JoinRequest{reqB, reqC} {
			n, req := n, req
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[n] = h.joinRequests.AcceptJoinRequest(context.Background(), leader, req.ID)
			}()
		}
		close(start)
		wg.Wait()

		if (errs[0] == nil) == (errs[1] == nil) {
			t.Fatalf("exactly one accept must succeed: %v, %v", errs[0], errs[1])
		}
		loser := errs[0]
		if loser == nil {
			loser = errs[1]
		}
		assertErrorIs(t, loser, ErrTeamFull)

		if view := h.view(t, leader, team.ID); view.ActiveMemberCount != 3 {
			t.Fatalf("active members = %d, want 3", view.ActiveMemberCount)
		}
		incoming, err := h.joinRequests.ListIncoming(context.Background(), leader)
		if err != nil {
			t.Fatalf("ListIncoming: %v", err)
		}
		if len(incoming) != 1 || incoming[0].Status != models.JoinRequestPending {
			t.Fatalf("losing request must stay pending, got %+v", incoming)
		}
	}
}

func TestListIncomingJoinRequests(t *testing.T) {
	h := newHarness(t)
	leader, other, requester := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	mine := h.createTeam(t, leader, "Quad", "quiz", 4)
	theirs := h.createTeam(t, other, "Other", "quiz", 4)

	if _, err := h.joinRequests.SendJoinRequest(context.Background(), requester, mine.ID, ""); err != nil {
		t.Fatalf("SendJoinRequest: %v", err)
	}
	if _, err := h.joinRequests.SendJoinRequest(context.Background(), requester, theirs.ID, ""); err != nil {
		t.Fatalf("SendJoinRequest: %v", err)
	}

	incoming, err := h.joinRequests.ListIncoming(context.Background(), leader)
	if err != nil {
		t.Fatalf("ListIncoming: %v", err)
	}
	if len(incoming) != 1 || incoming[0].TeamID != mine.ID {
		t.Fatalf("unexpected incoming requests %+v", incoming)
	}
	if incoming[0].Team == nil || incoming[0].Requester == nil || incoming[0].Requester.ID != requester.UserID {
		t.Fatalf("incoming request must carry team and requester, got %+v", incoming[0])
	}
}
