package models

import "time"

// UserType distinguishes how a user is engaged; the leaderboard exposes it
// for display alongside points.
type UserType string

const (
	UserTypeEmployee   UserType = "employee"
	UserTypeContractor UserType = "contractor"
)

// User is the subject of ledger entries and leaderboard rows. Timezone is an
// IANA zone name used to compute month boundaries for that user's ledger
// queries.
type User struct {
	ID       string   `json:"id"       validate:"required"`
	Name     string   `json:"name"     validate:"required"`
	UserType UserType `json:"user_type"`
	Timezone string   `json:"timezone"`
	Active   bool     `json:"active"`
}

// Location resolves the user's IANA time zone, falling back to UTC when the
// zone is unset or unknown.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}
