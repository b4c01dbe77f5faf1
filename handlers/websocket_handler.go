package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/festival-teams/realtime"
	"github.com/Dosada05/festival-teams/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub         *realtime.Hub
	teamService services.TeamService
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewWebSocketHandler принимает тот же список origin, что и CORS.
func NewWebSocketHandler(hub *realtime.Hub, ts services.TeamService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		teamService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// ServeTeam godoc
// @Summary Обновления команды в реальном времени
// @Tags realtime
// @Param teamID path string true "Team ID"
// @Param token query string false "JWT, если заголовок недоступен"
// @Success 101 "Switching Protocols"
// @Failure 403 {object} map[string]string "Не участник команды"
// @Router /ws/teams/{teamID} [get]
func (h *WebSocketHandler) ServeTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	team, err := h.teamService.GetTeam(r.Context(), auth, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if !auth.IsAdmin() && !slices.Contains(team.MemberIDs(), auth.UserID) {
		mapServiceErrorToHTTP(w, r, services.ErrNotTeamMember)
		return
	}

	h.serve(w, r, realtime.TeamRoom(teamID), auth.UserID)
}

// ServeMe godoc
// @Summary Личные уведомления (приглашения, заявки)
// @Tags realtime
// @Param token query string false "JWT, если заголовок недоступен"
// @Success 101 "Switching Protocols"
// @Router /ws/me [get]
func (h *WebSocketHandler) ServeMe(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}
	h.serve(w, r, realtime.UserRoom(auth.UserID), auth.UserID)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string, userID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту
		h.logger.Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, room, userID)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
