package types

import (
	"context"
)

// User represents a user in the system. The plan flag pair (planId, isPremium)
// is only ever written inside a subscription transition so it cannot drift
// from the subscription record.
type User struct {
	Id        string `json:"id" dynamodbav:"id"`
	Name      string `json:"name" dynamodbav:"name"`
	Email     string `json:"email" dynamodbav:"email"`
	PlanId    string `json:"planId" dynamodbav:"planId"`
	IsPremium bool   `json:"isPremium" dynamodbav:"isPremium"`
	CreatedAt int64  `json:"createdAt,omitempty" dynamodbav:"createdAt"`
	UpdatedAt int64  `json:"updatedAt,omitempty" dynamodbav:"updatedAt"`
}

type UserServiceInterface interface {
	GetUserByID(ctx context.Context, dynamodbClient DynamoDBAPI, id string) (*User, error)
}
