package order

import "github.com/google/uuid"

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	IDs     []uuid.UUID
	UserIDs []uuid.UUID
	Limit   int
	Offset  int
}
