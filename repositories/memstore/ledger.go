package memstore

import (
	"context"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

type invitationRepository struct{ s *Store }

func (s *Store) Invitations() repositories.InvitationRepository {
	return &invitationRepository{s: s}
}

func (r *invitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	defer r.s.lock(ctx)()
	st := r.s.state

	if inv.InviterID == inv.InviteeID {
		return repositories.ErrInvitationSelf
	}
	i := st.teamIndex(inv.TeamID)
	if i < 0 {
		return repositories.ErrInvitationRefInvalid
	}
	if _, ok := st.user(inv.InviteeID); !ok {
		return repositories.ErrInvitationRefInvalid
	}
	team := st.teams[i]
	if !team.IsActive {
		return repositories.ErrTeamInactive
	}
	if st.activeMemberCount(team.ID)+st.pendingInvitationCount(team.ID) >= team.MaxMembers {
		return repositories.ErrTeamFull
	}
	for _, existing := range st.invitations {
		if existing.TeamID == inv.TeamID && existing.InviteeID == inv.InviteeID && existing.Status == models.InvitationPending {
			return repositories.ErrInvitationExists
		}
	}

	inv.ID = uuid.New()
	inv.Status = models.InvitationPending
	inv.CreatedAt = r.s.now()
	inv.DecidedAt = nil

	stored := *inv
	stored.Team, stored.Invitee = nil, nil
	st.invitations = append(st.invitations, stored)
	return nil
}

func (r *invitationRepository) index(id uuid.UUID) int {
	for i := range r.s.state.invitations {
		if r.s.state.invitations[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *invitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	defer r.s.lock(ctx)()
	i := r.index(id)
	if i < 0 {
		return nil, repositories.ErrInvitationNotFound
	}
	inv := r.s.state.invitations[i]
	return &inv, nil
}

func (r *invitationRepository) Transition(ctx context.Context, id uuid.UUID, to models.InvitationStatus) (*models.Invitation, error) {
	defer r.s.lock(ctx)()
	i := r.index(id)
	if i < 0 {
		return nil, repositories.ErrInvitationNotFound
	}
	inv := &r.s.state.invitations[i]
	if inv.Status != models.InvitationPending {
		return nil, repositories.ErrInvitationNotPending
	}
	now := r.s.now()
	inv.Status = to
	inv.DecidedAt = &now
	out := *inv
	return &out, nil
}

func (r *invitationRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, status models.InvitationStatus) ([]*models.Invitation, error) {
	defer r.s.lock(ctx)()
	st := r.s.state

	out := make([]*models.Invitation, 0)
	for i := len(st.invitations) - 1; i >= 0; i-- {
		inv := st.invitations[i]
		if inv.TeamID == teamID && inv.Status == status {
			inv.Invitee = st.userRef(inv.InviteeID)
			out = append(out, &inv)
		}
	}
	return out, nil
}

func (r *invitationRepository) ListByInvitee(ctx context.Context, inviteeID uuid.UUID, status models.InvitationStatus) ([]*models.Invitation, error) {
	defer r.s.lock(ctx)()
	st := r.s.state

	out := make([]*models.Invitation, 0)
	for i := len(st.invitations) - 1; i >= 0; i-- {
		inv := st.invitations[i]
		if inv.InviteeID != inviteeID || inv.Status != status {
			continue
		}
		ti := st.teamIndex(inv.TeamID)
		if ti < 0 || !st.teams[ti].IsActive {
			continue
		}
		team := st.teams[ti]
		inv.Team = &team
		out = append(out, &inv)
	}
	return out, nil
}

func (r *invitationRepository) CountPending(ctx context.Context, teamID uuid.UUID) (int, error) {
	defer r.s.lock(ctx)()
	return r.s.state.pendingInvitationCount(teamID), nil
}

func (r *invitationRepository) CancelPendingByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	now := r.s.now()
	var n int64
	for i := range r.s.state.invitations {
		inv := &r.s.state.invitations[i]
		if inv.TeamID == teamID && inv.Status == models.InvitationPending {
			inv.Status = models.InvitationCancelled
			inv.DecidedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *invitationRepository) CancelPendingForInvitee(ctx context.Context, teamID, inviteeID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	now := r.s.now()
	var n int64
	for i := range r.s.state.invitations {
		inv := &r.s.state.invitations[i]
		if inv.TeamID == teamID && inv.InviteeID == inviteeID && inv.Status == models.InvitationPending {
			inv.Status = models.InvitationCancelled
			inv.DecidedAt = &now
			n++
		}
	}
	return n, nil
}

type joinRequestRepository struct{ s *Store }

func (s *Store) JoinRequests() repositories.JoinRequestRepository {
	return &joinRequestRepository{s: s}
}

func (r *joinRequestRepository) Create(ctx context.Context, req *models.JoinRequest) error {
	defer r.s.lock(ctx)()
	st := r.s.state

	if st.teamIndex(req.TeamID) < 0 {
		return repositories.ErrJoinRequestRefInvalid
	}
	if _, ok := st.user(req.RequesterID); !ok {
		return repositories.ErrJoinRequestRefInvalid
	}
	for _, existing := range st.joinRequests {
		if existing.TeamID == req.TeamID && existing.RequesterID == req.RequesterID && existing.Status == models.JoinRequestPending {
			return repositories.ErrJoinRequestExists
		}
	}

	req.ID = uuid.New()
	req.Status = models.JoinRequestPending
	req.CreatedAt = r.s.now()
	req.DecidedAt = nil

	stored := *req
	stored.Team, stored.Requester = nil, nil
	st.joinRequests = append(st.joinRequests, stored)
	return nil
}

func (r *joinRequestRepository) index(id uuid.UUID) int {
	for i := range r.s.state.joinRequests {
		if r.s.state.joinRequests[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	defer r.s.lock(ctx)()
	i := r.index(id)
	if i < 0 {
		return nil, repositories.ErrJoinRequestNotFound
	}
	req := r.s.state.joinRequests[i]
	return &req, nil
}

func (r *joinRequestRepository) Transition(ctx context.Context, id uuid.UUID, to models.JoinRequestStatus) (*models.JoinRequest, error) {
	defer r.s.lock(ctx)()
	i := r.index(id)
	if i < 0 {
		return nil, repositories.ErrJoinRequestNotFound
	}
	req := &r.s.state.joinRequests[i]
	if req.Status != models.JoinRequestPending {
		return nil, repositories.ErrJoinRequestNotPending
	}
	now := r.s.now()
	req.Status = to
	req.DecidedAt = &now
	out := *req
	return &out, nil
}

func (r *joinRequestRepository) ListPendingByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]*models.JoinRequest, error) {
	defer r.s.lock(ctx)()
	st := r.s.state

	wanted := make(map[uuid.UUID]bool, len(teamIDs))
	for _, id := range teamIDs {
		wanted[id] = true
	}
	out := make([]*models.JoinRequest, 0)
	for i := len(st.joinRequests) - 1; i >= 0; i-- {
		req := st.joinRequests[i]
		if wanted[req.TeamID] && req.Status == models.JoinRequestPending {
			req.Requester = st.userRef(req.RequesterID)
			out = append(out, &req)
		}
	}
	return out, nil
}

func (r *joinRequestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*models.JoinRequest, error) {
	defer r.s.lock(ctx)()
	st := r.s.state

	out := make([]*models.JoinRequest, 0)
	for i := len(st.joinRequests) - 1; i >= 0; i-- {
		req := st.joinRequests[i]
		if req.RequesterID != requesterID {
			continue
		}
		if ti := st.teamIndex(req.TeamID); ti >= 0 {
			team := st.teams[ti]
			req.Team = &team
		}
		out = append(out, &req)
	}
	return out, nil
}

func (r *joinRequestRepository) RejectPendingByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	now := r.s.now()
	var n int64
	for i := range r.s.state.joinRequests {
		req := &r.s.state.joinRequests[i]
		if req.TeamID == teamID && req.Status == models.JoinRequestPending {
			req.Status = models.JoinRequestRejected
			req.DecidedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *joinRequestRepository) CancelPendingForRequester(ctx context.Context, teamID, requesterID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	now := r.s.now()
	var n int64
	for i := range r.s.state.joinRequests {
		req := &r.s.state.joinRequests[i]
		if req.TeamID == teamID && req.RequesterID == requesterID && req.Status == models.JoinRequestPending {
			req.Status = models.JoinRequestCancelled
			req.DecidedAt = &now
			n++
		}
	}
	return n, nil
}
