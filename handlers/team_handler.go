package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/festival-teams/services"
	"github.com/google/uuid"
)

type TeamHandler struct {
	teamService services.TeamService
	syncService services.SyncService
}

func NewTeamHandler(ts services.TeamService, ss services.SyncService) *TeamHandler {
	return &TeamHandler{
		teamService: ts,
		syncService: ss,
	}
}

// CreateTeam godoc
// @Summary Создать команду
// @Tags teams
// @Accept json
// @Produce json
// @Param input body services.CreateTeamInput true "Team"
// @Success 201 {object} map[string]interface{} "Команда создана, текущий пользователь лидер"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 409 {object} map[string]string "Уже лидер команды этого события / имя занято"
// @Security BearerAuth
// @Router /teams [post]
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), auth, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTeam godoc
// @Summary Команда с актуальным статусом оплаты
// @Tags teams
// @Produce json
// @Param teamID path string true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /teams/{teamID} [get]
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
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

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyTeams godoc
// @Summary Команды текущего пользователя
// @Tags teams
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/mine [get]
func (h *TeamHandler) ListMyTeams(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	teams, err := h.teamService.ListMyTeams(r.Context(), auth)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTeam godoc
// @Summary Изменить имя или размер команды
// @Tags teams
// @Accept json
// @Produce json
// @Param teamID path string true "Team ID"
// @Param input body services.UpdateTeamInput true "Changes"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string "Только лидер"
// @Security BearerAuth
// @Router /teams/{teamID} [patch]
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	var input services.UpdateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Name == nil && input.MaxMembers == nil {
		badRequestResponse(w, r, errors.New("no fields provided for update"))
		return
	}

	team, err := h.teamService.UpdateTeam(r.Context(), auth, teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DisbandTeam godoc
// @Summary Распустить команду
// @Tags teams
// @Param teamID path string true "Team ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Только лидер"
// @Security BearerAuth
// @Router /teams/{teamID} [delete]
func (h *TeamHandler) DisbandTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	if err := h.teamService.DisbandTeam(r.Context(), auth, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// AddMember godoc
// @Summary Добавить участника напрямую
// @Tags teams
// @Accept json
// @Produce json
// @Param teamID path string true "Team ID"
// @Param input body addMemberRequest true "Member"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Команда заполнена / уже участник"
// @Security BearerAuth
// @Router /teams/{teamID}/members [post]
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	var input addMemberRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID == uuid.Nil {
		mapServiceErrorToHTTP(w, r, services.ErrUserIDRequired)
		return
	}

	team, err := h.teamService.AddMember(r.Context(), auth, teamID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveMember godoc
// @Summary Исключить участника или выйти из команды
// @Tags teams
// @Produce json
// @Param teamID path string true "Team ID"
// @Param userID path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string "Лидера удалить нельзя"
// @Security BearerAuth
// @Router /teams/{teamID}/members/{userID} [delete]
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getUUIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	team, err := h.teamService.RemoveMember(r.Context(), auth, teamID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SyncMyTeams godoc
// @Summary Выдать регистрации участникам оплаченных команд
// @Tags teams
// @Produce json
// @Success 200 {object} models.SyncReport
// @Security BearerAuth
// @Router /teams/sync [post]
func (h *TeamHandler) SyncMyTeams(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	report, err := h.syncService.SyncLeaderTeams(r.Context(), auth)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sync": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
