package dto

import "github.com/Ashu-Jha004/sportsv2-sub003/internal/models"

// Notification list filters.
const (
	NotificationFilterAll    = "all"
	NotificationFilterUnread = "unread"
)

// NotificationListQuery captures cursor pagination parameters. Cursor is
// the id of the last item of the previous page, empty for the first page.
type NotificationListQuery struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"`
	Filter string `form:"filter"`
}

// NotificationListResponse is one page of notifications. UnreadCount is
// computed independently of the page so badge state never depends on which
// page the client happens to hold.
type NotificationListResponse struct {
	Items       []models.Notification `json:"items"`
	HasMore     bool                  `json:"hasMore"`
	NextCursor  string                `json:"nextCursor,omitempty"`
	UnreadCount int                   `json:"unreadCount"`
}

// BulkResult reports the number of rows touched by a bulk operation.
type BulkResult struct {
	Count int64 `json:"count"`
}

// UnreadCountResponse carries the badge counter.
type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}
