// Package memstore is an in-memory implementation of the repository interfaces.
// Constraints enforced by the Postgres schema (partial unique indexes, capacity triggers)
// are enforced here under a single mutex; Do gives all-or-nothing transactions.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/festival-teams/models"
	"github.com/google/uuid"
)

type txKey struct{}

type state struct {
	users         []models.User
	events        []models.Event
	teams         []models.Team
	members       []models.TeamMember
	invitations   []models.Invitation
	joinRequests  []models.JoinRequest
	payments      []models.PaymentRecord
	registrations []models.MemberRegistration
}

func (st *state) clone() *state {
	return &state{
		users:         append([]models.User(nil), st.users...),
		events:        append([]models.Event(nil), st.events...),
		teams:         append([]models.Team(nil), st.teams...),
		members:       append([]models.TeamMember(nil), st.members...),
		invitations:   append([]models.Invitation(nil), st.invitations...),
		joinRequests:  append([]models.JoinRequest(nil), st.joinRequests...),
		payments:      append([]models.PaymentRecord(nil), st.payments...),
		registrations: append([]models.MemberRegistration(nil), st.registrations...),
	}
}

type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

func New() *Store {
	return &Store{
		state: &state{},
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// lock takes the store mutex unless ctx already runs inside this store's transaction.
func (s *Store) lock(ctx context.Context) func() {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Do runs fn with the store locked. State is restored if fn fails or panics.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, ok := ctx.Value(txKey{}).(*Store); ok && owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) PutUser(u models.User) models.User {
	defer s.lock(context.Background())()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	for i := range s.state.users {
		if s.state.users[i].ID == u.ID {
			s.state.users[i] = u
			return u
		}
	}
	s.state.users = append(s.state.users, u)
	return u
}

func (s *Store) PutEvent(e models.Event) {
	defer s.lock(context.Background())()
	for i := range s.state.events {
		if s.state.events[i].Ref == e.Ref {
			s.state.events[i] = e
			return
		}
	}
	s.state.events = append(s.state.events, e)
}

// PutPaymentRecord appends to the payment log, standing in for the gateway callback.
func (s *Store) PutPaymentRecord(rec models.PaymentRecord) models.PaymentRecord {
	defer s.lock(context.Background())()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.PaymentStatus = models.PaymentStatus(strings.ToUpper(string(rec.PaymentStatus)))
	s.state.payments = append(s.state.payments, rec)
	return rec
}

type seedFile struct {
	Users          []models.User          `json:"users"`
	Events         []models.Event         `json:"events"`
	PaymentRecords []models.PaymentRecord `json:"payment_records"`
}

// LoadSeed reads users, events and payment records from a JSON document.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed seedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("failed to decode seed: %w", err)
	}
	for _, u := range seed.Users {
		s.PutUser(u)
	}
	for _, e := range seed.Events {
		s.PutEvent(e)
	}
	for _, p := range seed.PaymentRecords {
		s.PutPaymentRecord(p)
	}
	return nil
}

func (st *state) user(id uuid.UUID) (models.User, bool) {
	for _, u := range st.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (st *state) teamIndex(id uuid.UUID) int {
	for i := range st.teams {
		if st.teams[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *state) activeMemberCount(teamID uuid.UUID) int {
	n := 0
	for _, m := range st.members {
		if m.TeamID == teamID && m.Status == models.MemberActive {
			n++
		}
	}
	return n
}

func (st *state) activeMemberIndex(teamID, userID uuid.UUID) int {
	for i, m := range st.members {
		if m.TeamID == teamID && m.UserID == userID && m.Status == models.MemberActive {
			return i
		}
	}
	return -1
}

func (st *state) pendingInvitationCount(teamID uuid.UUID) int {
	return st.reservedFor(teamID, uuid.Nil)
}

// reservedFor counts pending invitations of the team that hold a slot for someone other than userID.
func (st *state) reservedFor(teamID, userID uuid.UUID) int {
	n := 0
	for _, inv := range st.invitations {
		if inv.TeamID == teamID && inv.Status == models.InvitationPending && inv.InviteeID != userID {
			n++
		}
	}
	return n
}

func (st *state) userRef(id uuid.UUID) *models.User {
	if u, ok := st.user(id); ok {
		return &u
	}
	return nil
}
