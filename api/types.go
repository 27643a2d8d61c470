package api

import (
	"boardsync/board"
	"boardsync/domain"
)

const taskBodyMaxSize = 64 * 1024 // 64 KiB

// Authenticator is implemented by types able to extract owner ids from
// Authorization headers.
type Authenticator interface {
	OwnerFromAuthHeader(string) (string, error)
}

// tasksResponse is the list payload. Notice carries the user-visible
// transient failure message when the reload failed and the tasks shown are
// the last successfully loaded collection.
type tasksResponse struct {
	Tasks  []domain.Task `json:"tasks"`
	Notice string        `json:"notice,omitempty"`
}

// boardResponse is the grouped column payload.
type boardResponse struct {
	Buckets board.Buckets `json:"buckets"`
	Notice  string        `json:"notice,omitempty"`
}

// calendarResponse lists the tasks due on the selected day plus every day
// that has at least one due task, for calendar highlighting.
type calendarResponse struct {
	Date  string        `json:"date"`
	Tasks []domain.Task `json:"tasks"`
	Dates []string      `json:"dates"`
}

type errorResponse struct {
	Error string `json:"error"`
}
