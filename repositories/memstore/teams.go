package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

type teamRepository struct{ s *Store }

func (s *Store) Teams() repositories.TeamRepository { return &teamRepository{s: s} }

func (r *teamRepository) Create(ctx context.Context, team *models.Team) error {
	defer r.s.lock(ctx)()
	st := r.s.state

	if _, ok := st.user(team.LeaderID); !ok {
		return repositories.ErrTeamUserInvalid
	}
	for _, t := range st.teams {
		if !t.IsActive || t.EventRef != team.EventRef {
			continue
		}
		if t.LeaderID == team.LeaderID {
			return repositories.ErrTeamLeaderConflict
		}
		if strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}

	now := r.s.now()
	team.ID = uuid.New()
	team.IsActive = true
	team.CreatedAt = now
	team.UpdatedAt = now

	stored := *team
	stored.Leader = nil
	st.teams = append(st.teams, stored)
	st.members = append(st.members, models.TeamMember{
		ID:       uuid.New(),
		TeamID:   team.ID,
		UserID:   team.LeaderID,
		Role:     models.RoleLeader,
		Status:   models.MemberActive,
		JoinedAt: now,
	})
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	defer r.s.lock(ctx)()
	i := r.s.state.teamIndex(id)
	if i < 0 {
		return nil, repositories.ErrTeamNotFound
	}
	team := r.s.state.teams[i]
	return &team, nil
}

// GetByIDForUpdate is GetByID: the store mutex already serializes writers.
func (r *teamRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return r.GetByID(ctx, id)
}

func (r *teamRepository) Update(ctx context.Context, team *models.Team) error {
	defer r.s.lock(ctx)()
	st := r.s.state

	i := st.teamIndex(team.ID)
	if i < 0 || !st.teams[i].IsActive {
		return repositories.ErrTeamNotFound
	}
	for _, t := range st.teams {
		if t.ID != team.ID && t.IsActive && t.EventRef == st.teams[i].EventRef && strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	st.teams[i].Name = team.Name
	st.teams[i].MaxMembers = team.MaxMembers
	st.teams[i].UpdatedAt = r.s.now()
	team.UpdatedAt = st.teams[i].UpdatedAt
	return nil
}

func (r *teamRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()
	st := r.s.state

	i := st.teamIndex(id)
	if i < 0 || !st.teams[i].IsActive {
		return repositories.ErrTeamNotFound
	}
	st.teams[i].IsActive = false
	st.teams[i].UpdatedAt = r.s.now()
	return nil
}

func (r *teamRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]*models.Team, error) {
	defer r.s.lock(ctx)()
	st := r.s.state
	return r.filter(func(t models.Team) bool {
		return t.IsActive && st.activeMemberIndex(t.ID, userID) >= 0
	}), nil
}

func (r *teamRepository) ListByLeader(ctx context.Context, userID uuid.UUID) ([]*models.Team, error) {
	defer r.s.lock(ctx)()
	return r.filter(func(t models.Team) bool {
		return t.IsActive && t.LeaderID == userID
	}), nil
}

func (r *teamRepository) ListByEvent(ctx context.Context, eventRef string) ([]*models.Team, error) {
	defer r.s.lock(ctx)()
	teams := r.filter(func(t models.Team) bool {
		return t.IsActive && (eventRef == "" || t.EventRef == eventRef)
	})
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].EventRef != teams[j].EventRef {
			return teams[i].EventRef < teams[j].EventRef
		}
		return teams[i].Name < teams[j].Name
	})
	return teams, nil
}

func (r *teamRepository) Search(ctx context.Context, query string, limit int) ([]*models.TeamCandidate, error) {
	defer r.s.lock(ctx)()
	st := r.s.state
	needle := strings.ToLower(query)

	candidates := make([]*models.TeamCandidate, 0)
	for _, team := range r.filter(func(t models.Team) bool { return t.IsActive }) {
		leader, ok := st.user(team.LeaderID)
		if !ok {
			continue
		}
		if !strings.Contains(strings.ToLower(team.Name), needle) && !strings.Contains(strings.ToLower(leader.FullName), needle) {
			continue
		}
		team.Leader = &leader
		candidates = append(candidates, &models.TeamCandidate{Team: team, CurrentMembers: st.activeMemberCount(team.ID)})
		if limit > 0 && len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

// filter returns copies of matching teams, newest first. Caller holds the lock.
func (r *teamRepository) filter(keep func(models.Team) bool) []*models.Team {
	teams := make([]*models.Team, 0)
	for i := len(r.s.state.teams) - 1; i >= 0; i-- {
		t := r.s.state.teams[i]
		if keep(t) {
			teams = append(teams, &t)
		}
	}
	return teams
}
