package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/festival-teams/models"
	"github.com/Dosada05/festival-teams/services"
	"github.com/google/uuid"
)

type JoinRequestHandler struct {
	joinRequestService services.JoinRequestService
}

func NewJoinRequestHandler(js services.JoinRequestService) *JoinRequestHandler {
	return &JoinRequestHandler{joinRequestService: js}
}

type sendJoinRequestRequest struct {
	Message string `json:"message"`
}

// SendJoinRequest godoc
// @Summary Попроситься в команду
// @Tags join-requests
// @Accept json
// @Produce json
// @Param teamID path string true "Team ID"
// @Param input body sendJoinRequestRequest false "Message"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Уже участник / заявка уже есть"
// @Security BearerAuth
// @Router /teams/{teamID}/join-requests [post]
func (h *JoinRequestHandler) SendJoinRequest(w http.ResponseWriter, r *http.Request) {
	teamID, err := getUUIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	var input sendJoinRequestRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	req, err := h.joinRequestService.SendJoinRequest(r.Context(), auth, teamID, input.Message)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"join_request": req}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListIncoming godoc
// @Summary Заявки в команды, которыми руководит пользователь
// @Tags join-requests
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /join-requests/incoming [get]
func (h *JoinRequestHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.joinRequestService.ListIncoming)
}

// ListMine godoc
// @Summary Заявки текущего пользователя
// @Tags join-requests
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /join-requests/mine [get]
func (h *JoinRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.joinRequestService.ListMine)
}

func (h *JoinRequestHandler) list(w http.ResponseWriter, r *http.Request, fn func(context.Context, models.AuthContext) ([]*models.JoinRequest, error)) {
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	requests, err := fn(r.Context(), auth)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptJoinRequest godoc
// @Summary Одобрить заявку
// @Tags join-requests
// @Produce json
// @Param requestID path string true "Join request ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Команда заполнена / заявка уже обработана"
// @Security BearerAuth
// @Router /join-requests/{requestID}/accept [post]
func (h *JoinRequestHandler) AcceptJoinRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := getUUIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	team, err := h.joinRequestService.AcceptJoinRequest(r.Context(), auth, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectJoinRequest godoc
// @Summary Отклонить заявку
// @Tags join-requests
// @Produce json
// @Param requestID path string true "Join request ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /join-requests/{requestID}/reject [post]
func (h *JoinRequestHandler) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.joinRequestService.RejectJoinRequest)
}

// CancelJoinRequest godoc
// @Summary Отозвать свою заявку
// @Tags join-requests
// @Produce json
// @Param requestID path string true "Join request ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /join-requests/{requestID}/cancel [post]
func (h *JoinRequestHandler) CancelJoinRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.joinRequestService.CancelJoinRequest)
}

func (h *JoinRequestHandler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, models.AuthContext, uuid.UUID) (*models.JoinRequest, error)) {
	requestID, err := getUUIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	auth, ok := currentAuth(w, r)
	if !ok {
		return
	}

	req, err := fn(r.Context(), auth, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"join_request": req}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
