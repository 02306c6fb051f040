package dynamodb_handlers

import (
	"net/http"

	"github.com/eventpass/api/functions/gateway/helpers"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	"github.com/eventpass/api/functions/gateway/transport"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

type UserHandler struct {
	UserService internal_types.UserServiceInterface
}

func NewUserHandler(userService internal_types.UserServiceInterface) *UserHandler {
	return &UserHandler{UserService: userService}
}

// GetUserProfile returns the caller's user row, including the planId and
// isPremium flags maintained by subscription transitions.
func (h *UserHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	db := transport.GetDB()
	user, err := h.UserService.GetUserByID(r.Context(), db, userInfo.Sub)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get user: "+err.Error(), http.StatusInternalServerError, err)
		return
	}
	if user == nil {
		transport.SendErrorRes(w, "User not found", http.StatusNotFound, nil)
		return
	}

	transport.SendJSONRes(w, user, "", http.StatusOK)
}

func GetUserProfileHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewUserHandler(dynamodb_service.NewUserService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetUserProfile(w, r)
	}
}
