package handlers

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/transport"
)

// GetHealthHandler probes DynamoDB reachability by describing the events
// table. Anything else (queue, billing API) is intentionally not probed here;
// a slow dependency must not flap the load balancer check.
func GetHealthHandler(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		db := transport.GetDB()
		tableName := helpers.GetDbTableName(constants.EventsTablePrefix)

		_, err := db.DescribeTable(r.Context(), &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			transport.SendErrorRes(w, "Database unreachable: "+err.Error(), http.StatusServiceUnavailable, err)
			return
		}

		transport.SendJSONRes(w, map[string]string{"status": "ok"}, "", http.StatusOK)
	}
}
