package handler

import (
	"encoding/json"
	"net/http"

	"fieldsync/internal/domain"
	"fieldsync/internal/service"
	"fieldsync/pkg/response"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.Get(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.profileService.Update(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *ProfileHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.profileService.Refresh(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
