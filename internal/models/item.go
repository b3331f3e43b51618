package models

import "time"

type Item struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Available   bool      `json:"available" yaml:"available"`
	OwnerID     int64     `json:"owner_id" yaml:"owner_id"`
	RequestID   *int64    `json:"request_id,omitempty" yaml:"request_id"`
	CreatedAt   time.Time `json:"-" yaml:"-"`
	UpdatedAt   time.Time `json:"-" yaml:"-"`
}
