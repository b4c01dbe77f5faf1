package handlers

import (
	"net/http"

	"github.com/Dosada05/festival-teams/services"
)

type AdminHandler struct {
	reportService services.ReportService
}

func NewAdminHandler(rs services.ReportService) *AdminHandler {
	return &AdminHandler{reportService: rs}
}

// TeamStatistics godoc
// @Summary Статистика команд события
// @Tags admin
// @Produce json
// @Param event query string false "Event reference, пусто = все события"
// @Success 200 {object} models.TeamStatistics
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /admin/teams/stats [get]
func (h *AdminHandler) TeamStatistics(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	stats, err := h.reportService.TeamStatistics(r.Context(), auth, r.URL.Query().Get("event"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"statistics": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportTeamReport godoc
// @Summary Выгрузить CSV-отчет по командам в хранилище
// @Tags admin
// @Produce json
// @Param event query string false "Event reference"
// @Success 201 {object} models.TeamReport
// @Failure 403 {object} map[string]string
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /admin/teams/report [post]
func (h *AdminHandler) ExportTeamReport(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	report, err := h.reportService.ExportTeamReport(r.Context(), auth, r.URL.Query().Get("event"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
