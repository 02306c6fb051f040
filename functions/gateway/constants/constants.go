package constants

type AWSReqKey string

const ApiGwV2ReqKey AWSReqKey = "ApiGwV2Req"

// for all dynamo tables, currently single region
const AWS_REGION = "us-east-1"

const EventsTablePrefix = "Events"
const BulkRegistrationsTablePrefix = "BulkRegistrations"
const TicketsTablePrefix = "Tickets"
const SubscriptionsTablePrefix = "Subscriptions"
const SubscriptionEventsTablePrefix = "SubscriptionEvents"
const UsersTablePrefix = "Users"
const AppVersionsTablePrefix = "AppVersions"

const EVENT_ID_KEY = "event_id"
const REGISTRATION_ID_KEY = "registration_id"
const TICKET_ID_KEY = "ticket_id"
const USER_ID_KEY = "userId"
const GO_TEST_ENV = "test"

const MIN_BULK_QUANTITY = 2
const MAX_BULK_QUANTITY = 50

const DEFAULT_PAGINATION_LIMIT = 50

// amounts are stored in minor units (cents)
const CURRENCY_SUBUNITS = 100
const DEFAULT_CURRENCY = "ZAR"
const CURRENCY_SYMBOL = "R"

const IOS_PLATFORM = "ios"

// webhook event types sent by the subscription billing platform
const (
	WEBHOOK_EVENT_INITIAL_PURCHASE = "INITIAL_PURCHASE"
	WEBHOOK_EVENT_RENEWAL          = "RENEWAL"
	WEBHOOK_EVENT_PRODUCT_CHANGE   = "PRODUCT_CHANGE"
	WEBHOOK_EVENT_CANCELLATION     = "CANCELLATION"
	WEBHOOK_EVENT_EXPIRATION       = "EXPIRATION"
	WEBHOOK_EVENT_BILLING_ISSUE    = "BILLING_ISSUE"
	WEBHOOK_EVENT_TEST             = "TEST"
)

const WEBHOOK_SIGNATURE_HEADER = "X-Webhook-Signature"
const WEBHOOK_MAX_BODY_BYTES = 65536

// audit event types for transitions we originate (webhook types come from the
// billing platform verbatim)
const (
	SUBSCRIPTION_EVENT_PLAN_CHANGE = "PLAN_CHANGE"
	SUBSCRIPTION_EVENT_SYNC        = "SYNC"
)

// task kinds carried on the work queue
const (
	TASK_KIND_WEBHOOK_EVENT = "webhook_event"
	TASK_KIND_TICKET_ASSETS = "ticket_assets"
)

type UserInfo struct {
	Email             string   `json:"email"`
	EmailVerified     bool     `json:"email_verified"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
	Sub               string   `json:"sub"` // This is the userID
	UpdatedAt         int      `json:"updated_at"`
	Roles             []string `json:"roles"`
}

type RegistrationStatuses struct {
	Pending   string
	Completed string
	Cancelled string
}

var RegistrationStatus = RegistrationStatuses{
	Pending:   "pending",
	Completed: "completed",
	Cancelled: "cancelled",
}

type TicketStatuses struct {
	Issued  string
	Revoked string
}

var TicketStatus = TicketStatuses{
	Issued:  "issued",
	Revoked: "revoked",
}

type SubscriptionStatuses struct {
	Active       string
	Cancelled    string
	Expired      string
	BillingIssue string
}

var SubscriptionStatus = SubscriptionStatuses{
	Active:       "active",
	Cancelled:    "cancelled",
	Expired:      "expired",
	BillingIssue: "billing_issue",
}

type ProrationKinds struct {
	UpgradeCharge   string
	DowngradeCredit string
	NoProration     string
}

var ProrationKind = ProrationKinds{
	UpgradeCharge:   "upgrade_charge",
	DowngradeCredit: "downgrade_credit",
	NoProration:     "no_proration",
}

type Role string

const (
	SuperAdmin Role = "superAdmin"
	AppAdmin   Role = "appAdmin"
)

var Roles = map[Role]string{
	SuperAdmin: string(SuperAdmin),
	AppAdmin:   string(AppAdmin),
}

const FREE_PLAN_ID = "free"
const BASIC_PLAN_ID = "basic"
const PREMIUM_PLAN_ID = "premium"
const PRO_PLAN_ID = "pro"
