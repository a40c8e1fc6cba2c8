package dynamo

// DynamoDB attribute names used in update expressions.
const (
	fieldStatus     = "status"
	fieldConsumedAt = "consumed_at"
)
