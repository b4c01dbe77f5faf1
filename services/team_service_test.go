package services

import (
	"context"
	"testing"

	"github.com/Dosada05/festival-teams/models"
)

func TestCreateTeam(t *testing.T) {
	h := newHarness(t)
	h.event("hackathon", "evt-hack", 2, 4, 500)
	leader := h.user("Asha")

	view, err := h.teams.CreateTeam(context.Background(), leader, CreateTeamInput{Name: "  Byte Me ", EventRef: "hackathon"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if view.Name != "Byte Me" || view.MaxMembers != 4 || view.MinMembers != 2 || !view.IsActive {
		t.Fatalf("unexpected team %+v", view.Team)
	}
	if view.ActiveMemberCount != 1 || view.Members[0].UserID != leader.UserID || view.Members[0].Role != models.RoleLeader {
		t.Fatalf("leader must be the first active member, got %+v", view.Members)
	}
	if view.RegistrationState != models.RegistrationUnregistered {
		t.Fatalf("new team state = %s", view.RegistrationState)
	}
}

func TestCreateTeamErrors(t *testing.T) {
	h := newHarness(t)
	h.event("hackathon", "evt-hack", 2, 4, 500)
	leader := h.user("Asha")
	other := h.user("Bilal")
	h.createTeam(t, leader, "Byte Me", "hackathon", 4)

	five := 5
	tests := []struct {
		name   string
		caller models.AuthContext
		input  CreateTeamInput
		want   error
	}{
		{"empty name", other, CreateTeamInput{Name: "  ", EventRef: "hackathon"}, ErrValidation},
		{"missing event", other, CreateTeamInput{Name: "X"}, ErrEventRefRequired},
		{"size above event max", other, CreateTeamInput{Name: "X", EventRef: "hackathon", MaxMembers: &five}, ErrInvalidTeamSize},
		{"second team for same event", leader, CreateTeamInput{Name: "Other", EventRef: "hackathon"}, ErrLeaderHasTeam},
		{"name taken ignoring case", other, CreateTeamInput{Name: "byte me", EventRef: "hackathon"}, ErrTeamNameConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.teams.CreateTeam(context.Background(), tt.caller, tt.input)
			assertErrorIs(t, err, tt.want)
		})
	}

	// the same leader may lead a team in another event
	if _, err := h.teams.CreateTeam(context.Background(), leader, CreateTeamInput{Name: "Byte Me", EventRef: "robotics"}); err != nil {
		t.Fatalf("team for another event: %v", err)
	}
}

func TestAddMemberCapacityAndConflict(t *testing.T) {
	h := newHarness(t)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Duo", "quiz", 2)

	view := h.addMember(t, leader, team.ID, a)
	if view.ActiveMemberCount != 2 {
		t.Fatalf("active members = %d, want 2", view.ActiveMemberCount)
	}

	_, err := h.teams.AddMember(context.Background(), leader, team.ID, b.UserID)
	assertErrorIs(t, err, ErrCapacity)

	_, err = h.teams.AddMember(context.Background(), a, team.ID, b.UserID)
	assertErrorIs(t, err, ErrLeaderOnly)

	if _, err := h.teams.RemoveMember(context.Background(), leader, team.ID, a.UserID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	h.addMember(t, leader, team.ID, b)
	_, err = h.teams.AddMember(context.Background(), leader, team.ID, b.UserID)
	assertErrorIs(t, err, ErrCapacity)
}

func TestAddMemberTwiceConflicts(t *testing.T) {
	h := newHarness(t)
	leader, a := h.user("Asha"), h.user("Bilal")
	team := h.createTeam(t, leader, "Trio", "quiz", 3)
	h.addMember(t, leader, team.ID, a)

	_, err := h.teams.AddMember(context.Background(), leader, team.ID, a.UserID)
	assertErrorIs(t, err, ErrAlreadyMember)
}

func TestRemoveMember(t *testing.T) {
	h := newHarness(t)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Trio", "quiz", 3)
	h.addMember(t, leader, team.ID, a)
	h.addMember(t, leader, team.ID, b)

	_, err := h.teams.RemoveMember(context.Background(), leader, team.ID, leader.UserID)
	assertErrorIs(t, err, ErrInvariant)

	_, err = h.teams.RemoveMember(context.Background(), a, team.ID, b.UserID)
	assertErrorIs(t, err, ErrLeaderOrSelf)

	view, err := h.teams.RemoveMember(context.Background(), a, team.ID, a.UserID)
	if err != nil {
		t.Fatalf("leave team: %v", err)
	}
	if view.ActiveMemberCount != 2 {
		t.Fatalf("active members = %d, want 2", view.ActiveMemberCount)
	}
	if !h.notifier.received(a.UserID, models.NotificationMemberRemoved) {
		t.Fatalf("removed member was not notified")
	}

	// removing someone who is not active is a no-op
	if _, err := h.teams.RemoveMember(context.Background(), leader, team.ID, a.UserID); err != nil {
		t.Fatalf("repeat removal: %v", err)
	}
}

func TestUpdateTeam(t *testing.T) {
	h := newHarness(t)
	h.event("quiz", "evt-quiz", 2, 5, 0)
	leader, a, b := h.user("Asha"), h.user("Bilal"), h.user("Chen")
	team := h.createTeam(t, leader, "Trio", "quiz", 4)
	h.addMember(t, leader, team.ID, a)
	if _, err := h.invitations.SendInvitation(context.Background(), leader, team.ID, b.UserID); err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}
	h.createTeam(t, h.user("Dana"), "Taken", "quiz", 3)

	two, three, six := 2, 3, 6
	taken, renamed := "taken", "Quartet"

	_, err := h.teams.UpdateTeam(context.Background(), a, team.ID, UpdateTeamInput{Name: &renamed})
	assertErrorIs(t, err, ErrLeaderOnly)

	_, err = h.teams.UpdateTeam(context.Background(), leader, team.ID, UpdateTeamInput{MaxMembers: &two})
	assertErrorIs(t, err, ErrTeamSizeBelowMembers)

	_, err = h.teams.UpdateTeam(context.Background(), leader, team.ID, UpdateTeamInput{MaxMembers: &six})
	assertErrorIs(t, err, ErrInvalidTeamSize)

	_, err = h.teams.UpdateTeam(context.Background(), leader, team.ID, UpdateTeamInput{Name: &taken})
	assertErrorIs(t, err, ErrTeamNameConflict)

	view, err := h.teams.UpdateTeam(context.Background(), leader, team.ID, UpdateTeamInput{Name: &renamed, MaxMembers: &three})
	if err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}
	if view.Name != renamed || view.MaxMembers != 3 {
		t.Fatalf("unexpected team %+v", view.Team)
	}
}

func TestUpdateTeamRefusesRenameOfRegisteredTeam(t *testing.T) {
	h := newHarness(t)
	h.event("quiz", "evt-quiz", 2, 4, 1000)
	leader := h.user("Asha")
	team := h.createTeam(t, leader, "Brainiacs", "quiz", 4)
	h.pay(leader, "Brainiacs", 1000, "tx-1")

	renamed, same, four := "Brainstorm", " Brainiacs ", 4
	_, err := h.teams.UpdateTeam(context.Background(), leader, team.ID, UpdateTeamInput{Name: &renamed})
	assertErrorIs(t, err, ErrRegisteredRename)
	assertErrorIs(t, err, ErrInvariant)

	view, err := h.teams.UpdateTeam(context.Background(), leader, team.ID, UpdateTeamInput{Name: &same, MaxMembers: &four})
	if err != nil {
		t.Fatalf("UpdateTeam without a real rename: %v", err)
	}
	if view.Name != "Brainiacs" || !view.IsRegistered {
		t.Fatalf("team must keep its name and registration, got %+v", view.Team)
	}
}

func TestDisbandTeamClosesPendingState(t *testing.T) {
	h := newHarness(t)
	leader, a, invitee, requester := h.user("Asha"), h.user("Bilal"), h.user("Chen"), h.user("Dana")
	team := h.createTeam(t, leader, "Trio", "quiz", 4)
	h.addMember(t, leader, team.ID, a)

	inv, err := h.invitations.SendInvitation(context.Background(), leader, team.ID, invitee.UserID)
	if err != nil {
		t.Fatalf("SendInvitation: %v", err)
	}
	req, err := h.joinRequests.SendJoinRequest(context.Background(), requester, team.ID, "")
	if err != nil {
		t.Fatalf("SendJoinRequest: %v", err)
	}

	assertErrorIs(t, h.teams.DisbandTeam(context.Background(), a, team.ID), ErrLeaderOnly)
	if err := h.teams.DisbandTeam(context.Background(), leader, team.ID); err != nil {
		t.Fatalf("DisbandTeam: %v", err)
	}

	_, err = h.teams.GetTeam(context.Background(), leader, team.ID)
	assertErrorIs(t, err, ErrTeamNotFound)

	_, err = h.invitations.AcceptInvitation(context.Background(), invitee, inv.ID)
	assertErrorIs(t, err, ErrTeamDisbanded)
	_, err = h.joinRequests.CancelJoinRequest(context.Background(), requester, req.ID)
	assertErrorIs(t, err, ErrJoinRequestNotPending)

	mine, err := h.teams.ListMyTeams(context.Background(), a)
	if err != nil {
		t.Fatalf("ListMyTeams: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("disbanded team still listed: %d", len(mine))
	}
	if !h.notifier.received(a.UserID, models.NotificationTeamDisbanded) {
		t.Fatalf("member was not notified about disband")
	}

	// the leader is free to lead a new team for the event
	h.createTeam(t, leader, "Trio", "quiz", 4)
}
