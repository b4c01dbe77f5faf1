package handlers

import (
	"net/http"

	"github.com/Dosada05/festival-teams/services"
)

type SearchHandler struct {
	searchService services.SearchService
}

func NewSearchHandler(ss services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: ss}
}

// SearchTeams godoc
// @Summary Поиск команд, в которые можно вступить
// @Tags search
// @Produce json
// @Param q query string true "Запрос, минимум 2 символа"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /teams/search [get]
func (h *SearchHandler) SearchTeams(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	teams, err := h.searchService.SearchTeamsToJoin(r.Context(), auth, r.URL.Query().Get("q"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SearchCandidates godoc
// @Summary Поиск пользователей для приглашения в команду
// @Tags search
// @Produce json
// @Param teamID path string true "Team ID"
// @Param q query string true "Запрос, минимум 2 символа"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Только лидер"
// @Security BearerAuth
// @Router /teams/{teamID}/candidates [get]
func (h *SearchHandler) SearchCandidates(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	users, err := h.searchService.SearchUsersForTeam(r.Context(), auth, teamID, r.URL.Query().Get("q"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
