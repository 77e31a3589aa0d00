package domain

import "time"

type RegistrationStatus string

const (
	StatusActive         RegistrationStatus = "Active"
	StatusMaintenance    RegistrationStatus = "Maintenance"
	StatusDecommissioned RegistrationStatus = "Decommissioned"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusMaintenance, StatusDecommissioned:
		return true
	}
	return false
}

type OwnerOperator struct {
	Name       string `json:"name"`
	Contact    string `json:"contact"`
	Department string `json:"department,omitempty"`
}

type Vehicle struct {
	ID                 int64              `json:"id"`
	VIN                string             `json:"vin"`
	Manufacturer       string             `json:"manufacturer"`
	Model              string             `json:"model"`
	FleetID            string             `json:"fleetId"`
	OwnerOperator      OwnerOperator      `json:"ownerOperator"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// VehicleUpdate is a partial update; nil fields are left untouched.
type VehicleUpdate struct {
	Manufacturer       *string             `json:"manufacturer"`
	Model              *string             `json:"model"`
	FleetID            *string             `json:"fleetId"`
	OwnerOperator      *OwnerOperator      `json:"ownerOperator"`
	RegistrationStatus *RegistrationStatus `json:"registrationStatus"`
}

type VehicleFilter struct {
	Manufacturer       string
	FleetID            string
	RegistrationStatus string
}
