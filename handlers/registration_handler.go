package handlers

import (
	"net/http"

	"github.com/Dosada05/festival-teams/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
	paymentService      services.PaymentService
}

func NewRegistrationHandler(rs services.RegistrationService, ps services.PaymentService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: rs,
		paymentService:      ps,
	}
}

// ListMyRegistrations godoc
// @Summary Регистрации текущего пользователя (личные и командные)
// @Tags registrations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string "Журнал платежей недоступен"
// @Security BearerAuth
// @Router /registrations/mine [get]
func (h *RegistrationHandler) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	entries, err := h.registrationService.ListMyRegistrations(r.Context(), auth)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// InitiateTeamPayment godoc
// @Summary Начать оплату регистрации команды
// @Tags registrations
// @Produce json
// @Param teamID path string true "Team ID"
// @Success 201 {object} models.PaymentInitiation
// @Failure 403 {object} map[string]string "Только лидер"
// @Failure 409 {object} map[string]string "Команда уже оплачена"
// @Failure 422 {object} map[string]string "Мало участников / нечего оплачивать"
// @Failure 502 {object} map[string]string
// @Failure 503 {object} map[string]string "Платежный шлюз не настроен"
// @Security BearerAuth
// @Router /teams/{teamID}/payments [post]
func (h *RegistrationHandler) InitiateTeamPayment(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	payment, err := h.paymentService.InitiateTeamPayment(r.Context(), auth, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
