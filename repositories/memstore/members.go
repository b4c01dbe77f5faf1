package memstore

import (
	"context"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

type memberRepository struct{ s *Store }

func (s *Store) Members() repositories.MemberRepository { return &memberRepository{s: s} }

func (r *memberRepository) Add(ctx context.Context, member *models.TeamMember) error {
	defer r.s.lock(ctx)()
	st := r.s.state

	i := st.teamIndex(member.TeamID)
	if i < 0 {
		return repositories.ErrMemberRefInvalid
	}
	if _, ok := st.user(member.UserID); !ok {
		return repositories.ErrMemberRefInvalid
	}
	team := st.teams[i]
	if !team.IsActive {
		return repositories.ErrTeamInactive
	}
	if st.activeMemberCount(team.ID)+st.reservedFor(team.ID, member.UserID) >= team.MaxMembers {
		return repositories.ErrTeamFull
	}
	if st.activeMemberIndex(team.ID, member.UserID) >= 0 {
		return repositories.ErrMemberExists
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	if member.Role == models.RoleLeader {
		for _, m := range st.members {
			if m.TeamID == team.ID && m.Role == models.RoleLeader && m.Status == models.MemberActive {
				return repositories.ErrLeaderExists
			}
		}
	}

	member.ID = uuid.New()
	member.Status = models.MemberActive
	member.JoinedAt = r.s.now()
	member.LeftAt = nil

	stored := *member
	stored.User = nil
	st.members = append(st.members, stored)
	return nil
}

func (r *memberRepository) Deactivate(ctx context.Context, teamID, userID uuid.UUID) error {
	defer r.s.lock(ctx)()
	st := r.s.state

	i := st.activeMemberIndex(teamID, userID)
	if i < 0 {
		return repositories.ErrMemberNotFound
	}
	if st.members[i].Role == models.RoleLeader {
		return repositories.ErrMemberIsLeader
	}
	now := r.s.now()
	st.members[i].Status = models.MemberLeft
	st.members[i].LeftAt = &now
	return nil
}

func (r *memberRepository) GetActive(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	defer r.s.lock(ctx)()
	i := r.s.state.activeMemberIndex(teamID, userID)
	if i < 0 {
		return nil, repositories.ErrMemberNotFound
	}
	m := r.s.state.members[i]
	return &m, nil
}

func (r *memberRepository) ListActive(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	defer r.s.lock(ctx)()
	st := r.s.state

	members := make([]models.TeamMember, 0)
	for _, m := range st.members {
		if m.TeamID == teamID && m.Status == models.MemberActive && m.Role == models.RoleLeader {
			m.User = st.userRef(m.UserID)
			members = append(members, m)
		}
	}
	for _, m := range st.members {
		if m.TeamID == teamID && m.Status == models.MemberActive && m.Role != models.RoleLeader {
			m.User = st.userRef(m.UserID)
			members = append(members, m)
		}
	}
	return members, nil
}

func (r *memberRepository) CountActive(ctx context.Context, teamID uuid.UUID) (int, error) {
	defer r.s.lock(ctx)()
	return r.s.state.activeMemberCount(teamID), nil
}
