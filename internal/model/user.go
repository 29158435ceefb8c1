package model

import "time"

type User struct {
	ID               int64
	Email            string
	IsActive         bool
	IsWaitlisted     bool
	LastActivityTime *time.Time
	CreatedAt        time.Time
	ModifiedAt       time.Time
}
