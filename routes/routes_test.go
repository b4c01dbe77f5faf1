package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/festival-teams/handlers"
	"github.com/Dosada05/festival-teams/middleware"
	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/realtime"
	"github.com/Dosada05/festival-teams/repositories/memstore"
	"github.com/Dosada05/festival-teams/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const testSecret = "routes-test-secret"

type testServer struct {
	*httptest.Server
	store *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := realtime.NewHub(logger)

	reconciler := services.NewReconciliationService(store.Members(), store.Payments(), store.Events(), 2, logger)
	syncer := services.NewSyncService(store.Teams(), store.Registrations(), reconciler, logger)
	teamService := services.NewTeamService(store, store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), store.Events(), reconciler, hub, logger)

	router := chi.NewRouter()
	SetupRoutes(router, middleware.NewAuthenticator(testSecret), []string{"*"}, Handlers{
		Team:         handlers.NewTeamHandler(teamService, syncer),
		Invitation:   handlers.NewInvitationHandler(services.NewInvitationService(store, store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), store.Users(), reconciler, syncer, hub, logger)),
		JoinRequest:  handlers.NewJoinRequestHandler(services.NewJoinRequestService(store, store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), reconciler, syncer, hub, logger)),
		Search:       handlers.NewSearchHandler(services.NewSearchService(store.Teams(), store.Members(), store.Invitations(), store.JoinRequests(), store.Users())),
		Registration: handlers.NewRegistrationHandler(services.NewRegistrationService(store.Payments(), store.Registrations()), services.NewPaymentService(store.Teams(), store.Events(), reconciler, nil, "", logger)),
		Admin:        handlers.NewAdminHandler(services.NewReportService(store.Teams(), reconciler, nil, logger)),
		WebSocket:    handlers.NewWebSocketHandler(hub, teamService, []string{"*"}, logger),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

type identity struct {
	token string
	id    uuid.UUID
}

func (s *testServer) user(t *testing.T, name string, role models.UserRole) identity {
	t.Helper()
	u := s.store.PutUser(models.User{FullName: name, Email: name + "@fest.example"})
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID.String(),
		"role":    string(role),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return identity{token: token, id: u.ID}
}

func (s *testServer) do(t *testing.T, method, path string, caller identity, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if caller.token != "" {
		req.Header.Set("Authorization", "Bearer "+caller.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type teamEnvelope struct {
	Team struct {
		ID                uuid.UUID `json:"id"`
		ActiveMemberCount int       `json:"active_member_count"`
		RegistrationState string    `json:"registration_state"`
	} `json:"team"`
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTeamLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	leader := srv.user(t, "Asha", models.UserRoleParticipant)
	invitee := srv.user(t, "Bilal", models.UserRoleParticipant)

	if status := srv.do(t, http.MethodGet, "/api/v1/teams/mine", identity{}, nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous request status = %d, want 401", status)
	}

	var created teamEnvelope
	status := srv.do(t, http.MethodPost, "/api/v1/teams", leader, map[string]any{"name": "Duo", "event_ref": "quiz", "max_members": 2}, &created)
	if status != http.StatusCreated || created.Team.ActiveMemberCount != 1 {
		t.Fatalf("create status = %d, team = %+v", status, created.Team)
	}
	teamPath := "/api/v1/teams/" + created.Team.ID.String()

	if status := srv.do(t, http.MethodPost, "/api/v1/teams", leader, map[string]any{"name": "Again", "event_ref": "quiz"}, nil); status != http.StatusConflict {
		t.Fatalf("second team status = %d, want 409", status)
	}
	if status := srv.do(t, http.MethodPost, "/api/v1/teams", leader, map[string]any{"name": "", "event_ref": "quiz"}, nil); status != http.StatusBadRequest {
		t.Fatalf("empty name status = %d, want 400", status)
	}

	var sent struct {
		Invitation models.Invitation `json:"invitation"`
	}
	if status := srv.do(t, http.MethodPost, teamPath+"/invitations", leader, map[string]any{"invitee_id": invitee.id}, &sent); status != http.StatusCreated {
		t.Fatalf("send invitation status = %d", status)
	}
	if status := srv.do(t, http.MethodPost, teamPath+"/invitations", invitee, map[string]any{"invitee_id": invitee.id}, nil); status != http.StatusForbidden {
		t.Fatalf("invitation by non leader status = %d, want 403", status)
	}

	var accepted teamEnvelope
	if status := srv.do(t, http.MethodPost, "/api/v1/invitations/"+sent.Invitation.ID.String()+"/accept", invitee, nil, &accepted); status != http.StatusOK {
		t.Fatalf("accept status = %d", status)
	}
	if accepted.Team.ActiveMemberCount != 2 {
		t.Fatalf("active members = %d, want 2", accepted.Team.ActiveMemberCount)
	}
	if status := srv.do(t, http.MethodPost, "/api/v1/invitations/"+sent.Invitation.ID.String()+"/accept", invitee, nil, nil); status != http.StatusConflict {
		t.Fatalf("second accept status = %d, want 409", status)
	}

	third := srv.user(t, "Chen", models.UserRoleParticipant)
	if status := srv.do(t, http.MethodPost, teamPath+"/members", leader, map[string]any{"user_id": third.id}, nil); status != http.StatusConflict {
		t.Fatalf("add to full team status = %d, want 409", status)
	}
	if status := srv.do(t, http.MethodPost, teamPath+"/payments", leader, nil, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("payment without priced event status = %d, want 422", status)
	}

	if status := srv.do(t, http.MethodDelete, teamPath+"/members/"+leader.id.String(), leader, nil, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("remove leader status = %d, want 422", status)
	}
	if status := srv.do(t, http.MethodDelete, teamPath, leader, nil, nil); status != http.StatusNoContent {
		t.Fatalf("disband status = %d, want 204", status)
	}
	if status := srv.do(t, http.MethodGet, "/api/v1/teams/not-a-uuid", leader, nil, nil); status != http.StatusBadRequest {
		t.Fatalf("malformed id status = %d, want 400", status)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	srv := newTestServer(t)
	participant := srv.user(t, "Asha", models.UserRoleParticipant)
	admin := srv.user(t, "Root", models.UserRoleAdmin)

	if status := srv.do(t, http.MethodGet, "/api/v1/admin/teams/stats", participant, nil, nil); status != http.StatusForbidden {
		t.Fatalf("participant status = %d, want 403", status)
	}

	var stats struct {
		Statistics models.TeamStatistics `json:"statistics"`
	}
	if status := srv.do(t, http.MethodGet, "/api/v1/admin/teams/stats", admin, nil, &stats); status != http.StatusOK {
		t.Fatalf("admin status = %d", status)
	}
	if status := srv.do(t, http.MethodPost, "/api/v1/admin/teams/report", admin, nil, nil); status != http.StatusServiceUnavailable {
		t.Fatalf("report without storage status = %d, want 503", status)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(t)
	user := srv.user(t, "Asha", models.UserRoleParticipant)

	if status := srv.do(t, http.MethodGet, "/api/v1/teams/search?q=a", user, nil, nil); status != http.StatusBadRequest {
		t.Fatalf("short query status = %d, want 400", status)
	}
	var found struct {
		Teams []models.TeamCandidate `json:"teams"`
	}
	if status := srv.do(t, http.MethodGet, "/api/v1/teams/search?q=quiz", user, nil, &found); status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
}
