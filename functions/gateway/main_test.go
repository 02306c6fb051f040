package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/services"
	"github.com/eventpass/api/functions/gateway/transport"
)

func testApp() *App {
	app := NewApp()
	app.SetupNotFoundHandler()
	return app
}

func TestSetupRoutesRegistersAll(t *testing.T) {
	app := testApp()
	app.SetupRoutes(Routes)

	for _, route := range Routes {
		if app.Router.Get(route.Method+" "+route.Path) == nil {
			t.Errorf("route %s %s was not registered", route.Method, route.Path)
		}
	}
}

func TestAddRouteRequireAuth(t *testing.T) {
	os.Setenv("GO_ENV", constants.GO_TEST_ENV)
	defer os.Unsetenv("GO_ENV")
	originalSecret := os.Getenv("SESSION_JWT_SECRET")
	os.Setenv("SESSION_JWT_SECRET", "test-session-secret")
	defer os.Setenv("SESSION_JWT_SECRET", originalSecret)

	handlerRan := false
	var seenSub string

	app := testApp()
	app.addRoute(Route{
		Path:   "/api/whoami",
		Method: "GET",
		Handler: func(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				handlerRan = true
				userInfo, _ := helpers.GetUserInfoFromContext(r.Context())
				seenSub = userInfo.Sub
				transport.SendJSONRes(w, userInfo.Sub, "", http.StatusOK)
			}
		},
		Auth: Require,
	})

	t.Run("no token", func(t *testing.T) {
		handlerRan = false
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		rr := httptest.NewRecorder()

		app.Router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
		}
		if handlerRan {
			t.Error("handler must not run without a session")
		}
		if !strings.Contains(rr.Body.String(), "Not authenticated") {
			t.Errorf("body %q should say the request is unauthenticated", rr.Body.String())
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		handlerRan = false
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rr := httptest.NewRecorder()

		app.Router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
		}
		if handlerRan {
			t.Error("handler must not run with an invalid session")
		}
	})

	t.Run("valid token", func(t *testing.T) {
		handlerRan = false
		token, err := services.MintSessionToken(constants.UserInfo{
			Sub:   "usr_1",
			Email: "thandi@example.com",
		}, time.Hour)
		if err != nil {
			t.Fatalf("failed to mint session token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		app.Router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		if !handlerRan {
			t.Fatal("handler should run with a valid session")
		}
		if seenSub != "usr_1" {
			t.Errorf("userInfo sub = %q, want %q", seenSub, "usr_1")
		}
	})
}

func TestAddRouteCheckAuth(t *testing.T) {
	os.Setenv("GO_ENV", constants.GO_TEST_ENV)
	defer os.Unsetenv("GO_ENV")
	originalSecret := os.Getenv("SESSION_JWT_SECRET")
	os.Setenv("SESSION_JWT_SECRET", "test-session-secret")
	defer os.Setenv("SESSION_JWT_SECRET", originalSecret)

	var hadUser bool

	app := testApp()
	app.addRoute(Route{
		Path:   "/api/peek",
		Method: "GET",
		Handler: func(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				_, hadUser = helpers.GetUserInfoFromContext(r.Context())
				transport.SendJSONRes(w, nil, "", http.StatusOK)
			}
		},
		Auth: Check,
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/peek", nil)
		rr := httptest.NewRecorder()

		app.Router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		if hadUser {
			t.Error("anonymous request should carry no user info")
		}
	})

	t.Run("session is injected when present", func(t *testing.T) {
		token, err := services.MintSessionToken(constants.UserInfo{Sub: "usr_1"}, time.Hour)
		if err != nil {
			t.Fatalf("failed to mint session token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/peek", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		app.Router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		if !hadUser {
			t.Error("request with a valid session should carry user info")
		}
	})
}

func TestWithContextInjectsApiGwRequest(t *testing.T) {
	var gwRequest events.APIGatewayV2HTTPRequest
	var found bool

	app := testApp()
	app.addRoute(Route{
		Path:   "/api/gw",
		Method: "GET",
		Handler: func(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				gwRequest, found = r.Context().Value(constants.ApiGwV2ReqKey).(events.APIGatewayV2HTTPRequest)
				transport.SendJSONRes(w, nil, "", http.StatusOK)
			}
		},
		Auth: None,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/gw", nil)
	rr := httptest.NewRecorder()

	app.Router.ServeHTTP(rr, req)

	if !found {
		t.Fatal("context should carry an API Gateway request")
	}
	if gwRequest.RequestContext.HTTP.Method != http.MethodGet {
		t.Errorf("gateway method = %q, want %q", gwRequest.RequestContext.HTTP.Method, http.MethodGet)
	}
	if gwRequest.RequestContext.HTTP.Path != "/api/gw" {
		t.Errorf("gateway path = %q, want %q", gwRequest.RequestContext.HTTP.Path, "/api/gw")
	}
}

func TestNotFoundHandler(t *testing.T) {
	app := testApp()
	app.SetupRoutes(Routes)

	req := httptest.NewRequest(http.MethodGet, "/definitely-not-a-route", nil)
	rr := httptest.NewRecorder()

	app.Router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	var response transport.ServerResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("404 body should be the JSON envelope: %v", err)
	}
	if response.Success {
		t.Error("success should be false")
	}
	if !strings.Contains(response.Error, "/definitely-not-a-route") {
		t.Errorf("error %q should name the missing path", response.Error)
	}
}
