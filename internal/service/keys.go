package service

import "fmt"

// Query cache keys.
const (
	keyDeals      = "deals"
	keyCategories = "categories"
	keyMembers    = "members"
	keyMessages   = "messages"
)

func requestsKey(dealID uint) string {
	return fmt.Sprintf("requests:deal=%d", dealID)
}

func commentsKey(requestID uint) string {
	return fmt.Sprintf("comments:request=%d", requestID)
}

func documentsKey(requestID uint) string {
	return fmt.Sprintf("documents:request=%d", requestID)
}
