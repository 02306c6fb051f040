package helpers

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	dynamodb_types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/eventpass/api/functions/gateway/constants"
)

// FormatAmount renders an amount held in minor units as a display string,
// e.g. 252250 -> "R2522.50"
func FormatAmount(amountCents int64) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	return fmt.Sprintf("%s%s%.2f", sign, constants.CURRENCY_SYMBOL, float64(amountCents)/float64(constants.CURRENCY_SUBUNITS))
}

func PNGDataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func FormatDate(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format("Jan 2, 2006 (Mon)")
}

// GetUserInfoFromContext pulls the authenticated user injected by the auth
// middleware. The bool reports whether a user is present at all.
func GetUserInfoFromContext(ctx context.Context) (constants.UserInfo, bool) {
	userInfo, ok := ctx.Value("userInfo").(constants.UserInfo)
	if !ok || userInfo.Sub == "" {
		return constants.UserInfo{}, false
	}
	return userInfo, true
}

func HasRole(userInfo constants.UserInfo, role constants.Role) bool {
	for _, r := range userInfo.Roles {
		if r == string(role) || r == constants.Roles[constants.SuperAdmin] {
			return true
		}
	}
	return false
}

// ExtractStartKey turns DynamoDB's LastEvaluatedKey into the opaque cursor
// handed back to clients. Empty string means no further pages.
func ExtractStartKey(lastEvaluatedKey map[string]dynamodb_types.AttributeValue) string {
	if lastEvaluatedKey == nil {
		return ""
	}
	if id, ok := lastEvaluatedKey["id"].(*dynamodb_types.AttributeValueMemberS); ok {
		return id.Value
	}
	return ""
}
