package webui

import (
	"time"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/types"
)

// SSE event types
const (
	EventTypeConnected   = "connected"
	EventTypeViewChanged = "view_changed"
	EventTypeHeartbeat   = "heartbeat"
)

// SSEEvent is one server-sent event.
type SSEEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ViewChangedEvent is broadcast after every dispatcher transition.
type ViewChangedEvent struct {
	Version uint64        `json:"version"`
	Phase   console.Phase `json:"phase"`
	View    console.View  `json:"view"`
	Alert   bool          `json:"alert"`
}

// PageData is the template data for the page and the view partial.
type PageData struct {
	View         console.View
	Version      uint64
	Endpoint     string
	Query        *types.Query
	Categories   []CategoryView
	Flat         bool
	TotalItems   int
	Notification *NotificationView
	Elapsed      time.Duration
}

// CategoryView is a category ready for display.
type CategoryView struct {
	Heading string
	Items   []types.ResultItem
}

// NotificationView is the pending failure alert.
type NotificationView struct {
	Text string
	Time time.Time
}

// APIStateResponse is the JSON form of the console state.
type APIStateResponse struct {
	console.Snapshot
	View             console.View `json:"view"`
	Endpoint         string       `json:"endpoint"`
	NotificationText string       `json:"notification_text,omitempty"`
}

// APIErrorResponse is returned for rejected requests.
type APIErrorResponse struct {
	Error string        `json:"error"`
	Phase console.Phase `json:"phase"`
}
