package org

import "time"

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"createdAt"`
}

type Profile struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	ProfileStatusActive   = "active"
	ProfileStatusInactive = "inactive"
)

type Location struct {
	ID                string    `json:"id"`
	OrgID             string    `json:"organizationId"`
	Name              string    `json:"name"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	RadiusMeters      *float64  `json:"radiusMeters,omitempty"`
	GeofenceEnabled   bool      `json:"geofenceEnabled"`
	AllowClockOutside bool      `json:"allowClockOutside"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
}
