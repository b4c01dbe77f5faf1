package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/services"
	"github.com/google/uuid"
)

type InvitationHandler struct {
	invitationService services.InvitationService
}

func NewInvitationHandler(is services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: is}
}

type sendInvitationRequest struct {
	InviteeID uuid.UUID `json:"invitee_id"`
}

// SendInvitation godoc
// @Summary Пригласить пользователя в команду
// @Tags invitations
// @Accept json
// @Produce json
// @Param teamID path string true "Team ID"
// @Param input body sendInvitationRequest true "Invitee"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Только лидер"
// @Failure 409 {object} map[string]string "Нет свободных мест / приглашение уже есть"
// @Security BearerAuth
// @Router /teams/{teamID}/invitations [post]
func (h *InvitationHandler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	var input sendInvitationRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.InviteeID == uuid.Nil {
		mapServiceErrorToHTTP(w, r, services.ErrUserIDRequired)
		return
	}

	inv, err := h.invitationService.SendInvitation(r.Context(), auth, teamID, input.InviteeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"invitation": inv}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTeamInvitations godoc
// @Summary Ожидающие приглашения команды
// @Tags invitations
// @Produce json
// @Param teamID path string true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /teams/{teamID}/invitations [get]
func (h *InvitationHandler) ListTeamInvitations(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListTeamInvitations(r.Context(), auth, teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitations": invitations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyInvitations godoc
// @Summary Ожидающие приглашения текущего пользователя
// @Tags invitations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invitations/mine [get]
func (h *InvitationHandler) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListMyInvitations(r.Context(), auth)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitations": invitations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptInvitation godoc
// @Summary Принять приглашение
// @Tags invitations
// @Produce json
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Команда заполнена / приглашение уже обработано"
// @Security BearerAuth
// @Router /invitations/{invitationID}/accept [post]
func (h *InvitationHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, err := getUUIDFromURL(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	team, err := h.invitationService.AcceptInvitation(r.Context(), auth, invitationID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectInvitation godoc
// @Summary Отклонить приглашение
// @Tags invitations
// @Produce json
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invitations/{invitationID}/reject [post]
func (h *InvitationHandler) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.invitationService.RejectInvitation)
}

// CancelInvitation godoc
// @Summary Отозвать приглашение
// @Tags invitations
// @Produce json
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invitations/{invitationID}/cancel [post]
func (h *InvitationHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.invitationService.CancelInvitation)
}

type invitationDecision func(ctx context.Context, auth models.AuthContext, invitationID uuid.UUID) (*models.Invitation, error)

func (h *InvitationHandler) decide(w http.ResponseWriter, r *http.Request, fn invitationDecision) {
	invitationID, err := getUUIDFromURL(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	inv, err := fn(r.Context(), auth, invitationID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invitation": inv}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
