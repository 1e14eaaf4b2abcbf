// Package model holds the records shared by the session, data and view layers.
package model

import "time"

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Avatar    string     `json:"avatar,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Dashboards  []Dashboard   `json:"dashboards"`
}

// Dashboard is a named sub-grouping inside a project that bugs can affect.
type Dashboard struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
}

type Bug struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	ProjectID          string      `json:"projectId"`
	AffectedDashboards []string    `json:"affectedDashboards"`
	ReporterID         string      `json:"reporterId"`
	AssigneeID         string      `json:"assigneeId,omitempty"`
	Priority           BugPriority `json:"priority"`
	Status             BugStatus   `json:"status"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	Screenshots        []string    `json:"screenshots"`
	Files              []string    `json:"files"`
}

// Activity is an audit entry derived from a bug mutation.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	ProjectID   string    `json:"projectId"`
	BugID       string    `json:"bugId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Activity types.
const (
	ActivityBugReported = "bug_reported"
	ActivityBugAssigned = "bug_assigned"
	ActivityBugUpdated  = "bug_updated"
	ActivityBugDeleted  = "bug_deleted"
)

// StatusActivity is the activity type recorded when a bug moves to s.
func StatusActivity(s BugStatus) string {
	return "bug_" + string(s)
}

// NotificationSettings are per-user delivery and category preferences.
type NotificationSettings struct {
	EmailNotifications        bool `json:"emailNotifications"`
	BrowserNotifications      bool `json:"browserNotifications"`
	NewBugNotifications       bool `json:"newBugNotifications"`
	StatusChangeNotifications bool `json:"statusChangeNotifications"`
	MentionNotifications      bool `json:"mentionNotifications"`
	NotificationSound         bool `json:"notificationSound"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EmailNotifications:        true,
		BrowserNotifications:      true,
		NewBugNotifications:       true,
		StatusChangeNotifications: true,
		MentionNotifications:      true,
		NotificationSound:         true,
	}
}

// Filter narrows a list call. Fields that do not apply to an entity are ignored.
type Filter struct {
	ProjectID  string
	AssigneeID string
	ReporterID string
	UserID     string // activity actor
	Status     BugStatus
	Priority   BugPriority
	Search     string
}

// Envelope is the JSON wrapper every backend response uses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}
