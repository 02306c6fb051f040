package dynamodb_handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	dynamodb_service "github.com/eventpass/api/functions/gateway/services/dynamodb_service"
	"github.com/eventpass/api/functions/gateway/transport"
	internal_types "github.com/eventpass/api/functions/gateway/types"
)

type AppVersionHandler struct {
	AppVersionService internal_types.AppVersionServiceInterface
}

func NewAppVersionHandler(appVersionService internal_types.AppVersionServiceInterface) *AppVersionHandler {
	return &AppVersionHandler{AppVersionService: appVersionService}
}

func (h *AppVersionHandler) GetVersionInfo(w http.ResponseWriter, r *http.Request) {
	db := transport.GetDB()
	info, err := h.AppVersionService.GetVersionInfo(r.Context(), db, constants.IOS_PLATFORM)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get version info: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	transport.SendJSONRes(w, info, "", http.StatusOK)
}

// CheckVersion tells a client whether an update exists and whether it may keep
// running. Unparseable or missing version rows always fail open so a catalog
// problem can never lock every install out.
func (h *AppVersionHandler) CheckVersion(w http.ResponseWriter, r *http.Request) {
	var checkRequest internal_types.VersionCheckRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}
	err = json.Unmarshal(body, &checkRequest)
	if err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest, err)
		return
	}
	err = validate.Struct(&checkRequest)
	if err != nil {
		transport.SendErrorRes(w, "Invalid body: "+err.Error(), http.StatusBadRequest, err)
		return
	}

	db := transport.GetDB()
	info, err := h.AppVersionService.GetVersionInfo(r.Context(), db, constants.IOS_PLATFORM)
	if err != nil {
		transport.SendErrorRes(w, "Failed to get version info: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	result := helpers.EvaluateVersion(checkRequest.CurrentVersion, checkRequest.BuildNumber, info.Latest, info.Minimum)

	transport.SendJSONRes(w, result, "", http.StatusOK)
}

// RegisterAppVersion publishes a version row. Admin only; clearing stale
// isLatest/isMinimumRequired flags happens in the service before the upsert.
func (h *AppVersionHandler) RegisterAppVersion(w http.ResponseWriter, r *http.Request) {
	userInfo, ok := helpers.GetUserInfoFromContext(r.Context())
	if !ok {
		transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}
	if !helpers.HasRole(userInfo, constants.AppAdmin) {
		transport.SendErrorRes(w, "Admin role required", http.StatusForbidden, nil)
		return
	}

	var insert internal_types.AppVersionInsert
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.SendErrorRes(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}
	err = json.Unmarshal(body, &insert)
	if err != nil {
		transport.SendErrorRes(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest, err)
		return
	}
	err = validate.Struct(&insert)
	if err != nil {
		transport.SendErrorRes(w, "Invalid body: "+err.Error(), http.StatusBadRequest, err)
		return
	}

	db := transport.GetDB()
	appVersion, err := h.AppVersionService.RegisterAppVersion(r.Context(), db, insert)
	if err != nil {
		transport.SendErrorRes(w, "Failed to register app version: "+err.Error(), http.StatusInternalServerError, err)
		return
	}

	transport.SendJSONRes(w, appVersion, "App version registered", http.StatusCreated)
}

func GetVersionInfoHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAppVersionHandler(dynamodb_service.NewAppVersionService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.GetVersionInfo(w, r)
	}
}

func CheckVersionHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAppVersionHandler(dynamodb_service.NewAppVersionService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.CheckVersion(w, r)
	}
}

func RegisterAppVersionHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	handler := NewAppVersionHandler(dynamodb_service.NewAppVersionService())
	return func(w http.ResponseWriter, r *http.Request) {
		handler.RegisterAppVersion(w, r)
	}
}
