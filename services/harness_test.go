package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/Dosada05/festival-teams/repositories/memstore"
	"github.com/google/uuid"
)

type recordingNotifier struct {
	mu            sync.Mutex
	updated       []uuid.UUID
	disbanded     []uuid.UUID
	notifications map[uuid.UUID][]models.NotificationType
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{notifications: make(map[uuid.UUID][]models.NotificationType)}
}

func (n *recordingNotifier) TeamUpdated(view *models.ReconciledTeamView) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, view.ID)
}

func (n *recordingNotifier) TeamDisbanded(teamID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disbanded = append(n.disbanded, teamID)
}

func (n *recordingNotifier) UserNotified(userID uuid.UUID, note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications[userID] = append(n.notifications[userID], note.Type)
}

func (n *recordingNotifier) received(userID uuid.UUID, typ models.NotificationType) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, got := range n.notifications[userID] {
		if got == typ {
			return true
		}
	}
	return false
}

// failingPayments stands in for an unreachable payment log.
type failingPayments struct{}

func (failingPayments) ListPaid(context.Context, models.PaymentQuery) ([]models.PaymentRecord, error) {
	return nil, errors.Join(repositories.ErrPaymentSourceUnavailable, errors.New("connection refused"))
}

func (failingPayments) ListPaidByUser(context.Context, uuid.UUID) ([]models.PaymentRecord, error) {
	return nil, errors.Join(repositories.ErrPaymentSourceUnavailable, errors.New("connection refused"))
}

type harness struct {
	store        *memstore.Store
	notifier     *recordingNotifier
	logger       *slog.Logger
	reconciler   ReconciliationService
	sync         SyncService
	teams        TeamService
	invitations  InvitationService
	joinRequests JoinRequestService
	search       SearchService
	registration RegistrationService
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	payments repositories.PaymentRecordSource
}

func withPayments(p repositories.PaymentRecordSource) harnessOption {
	return func(c *harnessConfig) { c.payments = p }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	store := memstore.New()
	cfg := harnessConfig{payments: store.Payments()}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := newRecordingNotifier()
	reconciler := NewReconciliationService(store.Members(), cfg.payments, store.Events(), 2, logger)
	syncer := NewSyncService(store.Teams(), store.Registrations(), reconciler, logger)

	return &harness{
		store:        store,
		notifier:     notifier,
		logger:       logger,
		reconciler:   reconciler,
		sync:         syncer,
		teams:        NewTeamService(store, store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), store.Events(), reconciler, notifier, logger),
		invitations:  NewInvitationService(store, store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), store.Users(), reconciler, syncer, notifier, logger),
		joinRequests: NewJoinRequestService(store, store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), reconciler, syncer, notifier, logger),
		search:       NewSearchService(store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), store.Users()),
		registration: NewRegistrationService(cfg.payments, store.Registrations()),
	}
}

func (h *harness) user(name string) models.AuthContext {
	u := h.store.PutUser(models.User{FullName: name, Email: name + "@fest.example"})
	return models.AuthContext{UserID: u.ID, Role: models.UserRoleParticipant}
}

func (h *harness) event(ref, key string, minSize, maxSize int, price float64) {
	h.store.PutEvent(models.Event{Ref: ref, Key: key, Name: ref, MinTeamSize: minSize, MaxTeamSize: maxSize, PricePerMember: price})
}

func (h *harness) createTeam(t *testing.T, leader models.AuthContext, name, eventRef string, maxMembers int) *models.ReconciledTeamView {
	t.Helper()
	view, err := h.teams.CreateTeam(context.Background(), leader, CreateTeamInput{Name: name, EventRef: eventRef, MaxMembers: &maxMembers})
	if err != nil {
		t.Fatalf("CreateTeam(%s): %v", name, err)
	}
	return view
}

func (h *harness) addMember(t *testing.T, leader models.AuthContext, teamID uuid.UUID, member models.AuthContext) *models.ReconciledTeamView {
	t.Helper()
	view, err := h.teams.AddMember(context.Background(), leader, teamID, member.UserID)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	return view
}

func (h *harness) pay(user models.AuthContext, eventKey string, amount float64, tx string) {
	h.store.PutPaymentRecord(models.PaymentRecord{
		UserID:        user.UserID,
		EventKey:      eventKey,
		PaymentStatus: models.PaymentPaid,
		PaymentAmount: &amount,
		TransactionID: &tx,
	})
}

func (h *harness) view(t *testing.T, caller models.AuthContext, teamID uuid.UUID) *models.ReconciledTeamView {
	t.Helper()
	view, err := h.teams.GetTeam(context.Background(), caller, teamID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	return view
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}
