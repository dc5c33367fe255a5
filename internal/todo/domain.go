// Package todo implements the to-do list API.
package todo

import (
	"errors"
	"time"
)

// Todo is a single to-do item.
type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	// ErrNotFound indicates no todo matched the id.
	ErrNotFound = errors.New("todo not found")
	// ErrTitleRequired indicates a create with a blank title.
	ErrTitleRequired = errors.New("title is required")
)

// Update describes a partial update; nil fields are left untouched.
type Update struct {
	Title     *string
	Completed *bool
}
