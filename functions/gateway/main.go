package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/gorillamux"
	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/handlers"
	"github.com/eventpass/api/functions/gateway/handlers/dynamodb_handlers"
	"github.com/eventpass/api/functions/gateway/services"
	"github.com/eventpass/api/functions/gateway/transport"
)

type AuthType string

const (
	None    AuthType = "none"
	Check   AuthType = "check"
	Require AuthType = "require"
)

type Route struct {
	Path    string
	Method  string
	Handler func(http.ResponseWriter, *http.Request) http.HandlerFunc
	Auth    AuthType
}

var Routes []Route

func init() {
	Routes = []Route{
		{"/health", "GET", handlers.GetHealthHandler, None},
		{"/api/events/{" + constants.EVENT_ID_KEY + "}/bulk-registrations", "POST", dynamodb_handlers.CreateBulkRegistrationHandler, Require},
		{"/api/bulk-registrations", "GET", dynamodb_handlers.GetBulkRegistrationsHandler, Require},
		{"/api/bulk-registrations/{" + constants.REGISTRATION_ID_KEY + "}", "GET", dynamodb_handlers.GetBulkRegistrationHandler, Require},
		{"/api/bulk-registrations/{" + constants.REGISTRATION_ID_KEY + "}/confirm", "POST", dynamodb_handlers.ConfirmBulkRegistrationHandler, Require},
		{"/api/bulk-registrations/{" + constants.REGISTRATION_ID_KEY + "}", "DELETE", dynamodb_handlers.CancelBulkRegistrationHandler, Require},
		{"/api/tickets", "GET", dynamodb_handlers.GetTicketsHandler, Require},
		{"/api/tickets/{" + constants.TICKET_ID_KEY + "}", "GET", dynamodb_handlers.GetTicketHandler, Require},
		{"/api/profile", "GET", dynamodb_handlers.GetUserProfileHandler, Require},
		{"/api/app-version/ios", "GET", dynamodb_handlers.GetVersionInfoHandler, None},
		{"/api/app-version/ios/check", "POST", dynamodb_handlers.CheckVersionHandler, None},
		// role check lives in the handler; the route only guarantees a session
		{"/api/app-version/ios", "POST", dynamodb_handlers.RegisterAppVersionHandler, Require},
		{"/api/subscription/plans", "GET", dynamodb_handlers.GetPlansHandler, None},
		{"/api/subscription/status", "GET", dynamodb_handlers.GetSubscriptionStatusHandler, Require},
		{"/api/subscription/change-plan", "POST", dynamodb_handlers.ChangePlanHandler, Require},
		{"/api/subscription/preview-plan-change", "POST", dynamodb_handlers.PreviewPlanChangeHandler, Require},
		{"/api/subscription/sync", "POST", dynamodb_handlers.SyncSubscriptionHandler, Require},
		// authenticated by HMAC signature inside the handler, not by session
		{"/api/webhooks/revenuecat", "POST", handlers.HandleBillingWebhookHandler, None},
	}
}

type App struct {
	Router *mux.Router
}

func NewApp() *App {
	app := &App{
		Router: mux.NewRouter(),
	}
	app.Router.Use(withContext)
	return app
}

func (app *App) SetupRoutes(routes []Route) {
	for _, route := range routes {
		app.addRoute(route)
	}
}

func (app *App) addRoute(route Route) {
	var handler http.HandlerFunc
	switch route.Auth {
	case Require:
		handler = func(w http.ResponseWriter, r *http.Request) {
			token, err := services.ExtractSessionToken(r)
			if err != nil {
				transport.SendErrorRes(w, "Not authenticated", http.StatusUnauthorized, err)
				return
			}
			userInfo, err := services.ParseSessionToken(token)
			if err != nil {
				transport.SendErrorRes(w, "Invalid session: "+err.Error(), http.StatusUnauthorized, err)
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), "userInfo", *userInfo))
			route.Handler(w, r).ServeHTTP(w, r)
		}
	case Check:
		handler = func(w http.ResponseWriter, r *http.Request) {
			if token, err := services.ExtractSessionToken(r); err == nil {
				if userInfo, err := services.ParseSessionToken(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), "userInfo", *userInfo))
				}
			}
			route.Handler(w, r).ServeHTTP(w, r)
		}
	default:
		handler = func(w http.ResponseWriter, r *http.Request) {
			route.Handler(w, r).ServeHTTP(w, r)
		}
	}

	app.Router.HandleFunc(route.Path, handler).Methods(route.Method).Name(route.Method + " " + route.Path)
}

func (app *App) SetupNotFoundHandler() {
	app.Router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Println("Not found", r.RequestURI)
		transport.SendErrorRes(w, fmt.Sprintf("Not found: %s", r.RequestURI), http.StatusNotFound, nil)
	})
}

// Middleware to inject context into the request
func withContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		// Add a dummy APIGatewayV2HTTPRequest for testing
		if _, ok := ctx.Value(constants.ApiGwV2ReqKey).(events.APIGatewayV2HTTPRequest); !ok {
			ctx = context.WithValue(ctx, constants.ApiGwV2ReqKey, events.APIGatewayV2HTTPRequest{
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
						Method: r.Method,
						Path:   r.URL.Path,
					},
				},
			})
		}
		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
	})
}

func main() {
	app := NewApp()
	app.SetupNotFoundHandler()

	// Warm the DynamoDB client at cold start so the first request doesn't pay
	// for config resolution
	_ = transport.GetDB()

	app.SetupRoutes(Routes)

	adapter := gorillamux.NewV2(app.Router)

	lambda.Start(func(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		ctx = context.WithValue(ctx, constants.ApiGwV2ReqKey, request)
		return adapter.ProxyWithContext(ctx, request)
	})
}
