package types

import (
	"context"
)

// AppVersion is one published iOS build, keyed by version string. At most one
// row carries isLatest and at most one carries isMinimumRequired.
type AppVersion struct {
	Version           string `json:"version" dynamodbav:"version"`
	BuildNumber       int    `json:"buildNumber" dynamodbav:"buildNumber"`
	Platform          string `json:"platform" dynamodbav:"platform"`
	IsLatest          bool   `json:"isLatest" dynamodbav:"isLatest"`
	IsMinimumRequired bool   `json:"isMinimumRequired" dynamodbav:"isMinimumRequired"`
	UpdateMessage     string `json:"updateMessage,omitempty" dynamodbav:"updateMessage"`
	ReleasedAt        int64  `json:"releasedAt" dynamodbav:"releasedAt"`
}

// AppVersionInsert is the admin payload that publishes a new version row
type AppVersionInsert struct {
	Version           string `json:"version" validate:"required" dynamodbav:"version"`
	BuildNumber       int    `json:"buildNumber" validate:"required,min=1" dynamodbav:"buildNumber"`
	Platform          string `json:"platform" dynamodbav:"platform"`
	IsLatest          bool   `json:"isLatest" dynamodbav:"isLatest"`
	IsMinimumRequired bool   `json:"isMinimumRequired" dynamodbav:"isMinimumRequired"`
	UpdateMessage     string `json:"updateMessage" dynamodbav:"updateMessage"`
	ReleasedAt        int64  `json:"releasedAt" dynamodbav:"releasedAt"`
}

// VersionCheckRequest is the body of POST /api/app-version/ios/check
type VersionCheckRequest struct {
	CurrentVersion string `json:"currentVersion" validate:"required"`
	BuildNumber    int    `json:"buildNumber"`
}

// VersionCheckResponse reports the update verdicts for a client version
type VersionCheckResponse struct {
	NeedsUpdate    bool   `json:"needsUpdate"`
	ForceUpdate    bool   `json:"forceUpdate"`
	CurrentVersion string `json:"currentVersion"`
	LatestVersion  string `json:"latestVersion,omitempty"`
	MinimumVersion string `json:"minimumVersion,omitempty"`
	UpdateMessage  string `json:"updateMessage,omitempty"`
}

// VersionInfo is the public latest/minimum pair for the platform
type VersionInfo struct {
	Latest  *AppVersion `json:"latest,omitempty"`
	Minimum *AppVersion `json:"minimum,omitempty"`
}

type AppVersionServiceInterface interface {
	GetAppVersionByVersion(ctx context.Context, dynamodbClient DynamoDBAPI, version string) (*AppVersion, error)
	GetVersionInfo(ctx context.Context, dynamodbClient DynamoDBAPI, platform string) (*VersionInfo, error)
	RegisterAppVersion(ctx context.Context, dynamodbClient DynamoDBAPI, appVersion AppVersionInsert) (*AppVersion, error)
}
