package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/google/uuid"
)

type paymentSource struct{ s *Store }

func (s *Store) Payments() repositories.PaymentRecordSource { return &paymentSource{s: s} }

func (p *paymentSource) ListPaid(ctx context.Context, q models.PaymentQuery) ([]models.PaymentRecord, error) {
	defer p.s.lock(ctx)()

	users := make(map[uuid.UUID]bool, len(q.UserIDs))
	for _, id := range q.UserIDs {
		users[id] = true
	}
	keys := make(map[string]bool, len(q.EventKeys))
	for _, k := range q.EventKeys {
		keys[k] = true
	}

	out := make([]models.PaymentRecord, 0)
	for _, rec := range p.s.state.payments {
		if rec.PaymentStatus == models.PaymentPaid && users[rec.UserID] && keys[rec.EventKey] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *paymentSource) ListPaidByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentRecord, error) {
	defer p.s.lock(ctx)()
	out := make([]models.PaymentRecord, 0)
	for i := len(p.s.state.payments) - 1; i >= 0; i-- {
		rec := p.s.state.payments[i]
		if rec.UserID == userID && rec.PaymentStatus == models.PaymentPaid {
			out = append(out, rec)
		}
	}
	return out, nil
}

type eventCatalog struct{ s *Store }

func (s *Store) Events() repositories.EventCatalog { return &eventCatalog{s: s} }

func (c *eventCatalog) GetByRef(ctx context.Context, ref string) (*models.Event, error) {
	defer c.s.lock(ctx)()
	for _, e := range c.s.state.events {
		if e.Ref == ref {
			return &e, nil
		}
	}
	return nil, repositories.ErrEventNotFound
}

type registrationRepository struct{ s *Store }

func (s *Store) Registrations() repositories.RegistrationRepository {
	return &registrationRepository{s: s}
}

func (r *registrationRepository) Upsert(ctx context.Context, reg *models.MemberRegistration) (repositories.UpsertResult, error) {
	defer r.s.lock(ctx)()
	st := r.s.state

	for i := range st.registrations {
		existing := &st.registrations[i]
		if existing.UserID != reg.UserID || existing.TeamID != reg.TeamID {
			continue
		}
		reg.ID, reg.CreatedAt = existing.ID, existing.CreatedAt
		if existing.Amount == 0 && reg.Amount > 0 {
			existing.Amount = reg.Amount
			return repositories.UpsertRepaired, nil
		}
		return repositories.UpsertUnchanged, nil
	}

	reg.ID = uuid.New()
	reg.CreatedAt = r.s.now()
	st.registrations = append(st.registrations, *reg)
	return repositories.UpsertInserted, nil
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MemberRegistration, error) {
	defer r.s.lock(ctx)()
	out := make([]models.MemberRegistration, 0)
	for i := len(r.s.state.registrations) - 1; i >= 0; i-- {
		if reg := r.s.state.registrations[i]; reg.UserID == userID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *registrationRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.MemberRegistration, error) {
	defer r.s.lock(ctx)()
	out := make([]models.MemberRegistration, 0)
	for _, reg := range r.s.state.registrations {
		if reg.TeamID == teamID {
			out = append(out, reg)
		}
	}
	return out, nil
}

type userRepository struct{ s *Store }

func (s *Store) Users() repositories.UserRepository { return &userRepository{s: s} }

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer r.s.lock(ctx)()
	if u, ok := r.s.state.user(id); ok {
		return &u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	defer r.s.lock(ctx)()
	needle := strings.ToLower(query)

	out := make([]*models.User, 0)
	for _, u := range r.s.state.users {
		u := u
		rollNo := ""
		if u.RollNo != nil {
			rollNo = *u.RollNo
		}
		if strings.Contains(strings.ToLower(u.FullName), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) ||
			strings.Contains(strings.ToLower(rollNo), needle) {
			out = append(out, &u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
