// Package model holds the wire types exchanged with the booking service.
package model

import (
	"fmt"
	"time"
)

// RoomType groups rooms into tabs.
type RoomType string

const (
	RoomTypeBasement RoomType = "BASEMENT"
	RoomTypeDCell    RoomType = "DCELL"
)

// Label returns the tab title for a room type.
func (t RoomType) Label() string {
	switch t {
	case RoomTypeBasement:
		return "스터디룸"
	case RoomTypeDCell:
		return "DCELL"
	default:
		return string(t)
	}
}

// Reservation statuses as reported by the booking service.
const (
	StatusReserved  = "RESERVED"
	StatusCheckedIn = "CHECKED_IN"
	StatusCancelled = "CANCELLED"
)

// Room is a bookable room.
type Room struct {
	ID   int64    `json:"id"`
	Name string   `json:"name"`
	Type RoomType `json:"type"`
}

// Reservation is a booking of an inclusive slot range [StartSlot, EndSlot] on Date.
type Reservation struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"userId"`
	RoomID          int64   `json:"roomId"`
	Date            string  `json:"date"` // YYYY-MM-DD
	StartSlot       int     `json:"startSlot"`
	EndSlot         int     `json:"endSlot"`
	Status          string  `json:"status"`
	CheckinTime     *string `json:"checkinTime"`
	CheckinRequired *bool   `json:"checkinRequired,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

// IsActive reports whether the reservation occupies its slots.
func (r *Reservation) IsActive() bool {
	switch r.Status {
	case StatusReserved, StatusCheckedIn, "":
		return true
	default:
		return false
	}
}

// StartsAt returns the instant the first slot begins in loc.
func (r *Reservation) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", r.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("reservation %d: invalid date %q: %w", r.ID, r.Date, err)
	}
	return day.Add(time.Duration(r.StartSlot) * 30 * time.Minute), nil
}

// CreateRequest is the body of POST /reservation.
type CreateRequest struct {
	UserID    int64  `json:"userId"`
	RoomID    int64  `json:"roomId"`
	Date      string `json:"date"`
	StartSlot int    `json:"startSlot"`
	EndSlot   int    `json:"endSlot"`
}

// User is the authenticated caller.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Role       int    `json:"role"` // 0 user, 1 admin, 2 super admin
}

// IsAdmin reports whether the user may open the admin console.
func (u User) IsAdmin() bool {
	return u.Role >= 1
}

// PublicSettings are the booking rules the service exposes without login.
// Values are informational only; the service enforces them.
type PublicSettings struct {
	OpeningHour            string `json:"OPENING_HOUR"`
	ClosingHour            string `json:"CLOSING_HOUR"`
	DailyLimitHours        string `json:"DAILY_LIMIT_HOURS"`
	MaxSlotsPerReservation string `json:"MAX_SLOTS_PER_RESERVATION"`
}

// CheckinResult is returned by both check-in endpoints.
type CheckinResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Reservation *Reservation `json:"reservation,omitempty"`
}
