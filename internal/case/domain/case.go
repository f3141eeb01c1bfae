package domain

import (
	"fmt"
	"time"

	"github.com/council-gov/casework/internal/shared/types"
)

// CaseType defines the type of enforcement case
type CaseType string

const (
	CaseTypeFlyTipping             CaseType = "fly_tipping"
	CaseTypeAbandonedVehicle       CaseType = "abandoned_vehicle"
	CaseTypeLittering              CaseType = "littering"
	CaseTypeDogFouling             CaseType = "dog_fouling"
	CaseTypePSPODogControl         CaseType = "pspo_dog_control"
	CaseTypeFlyTippingPrivate      CaseType = "fly_tipping_private"
	CaseTypeFlyTippingOrganised    CaseType = "fly_tipping_organised"
	CaseTypeNuisanceVehicle        CaseType = "nuisance_vehicle"
	CaseTypeNuisanceVehicleSeller  CaseType = "nuisance_vehicle_seller"
	CaseTypeNuisanceVehicleParking CaseType = "nuisance_vehicle_parking"
	CaseTypeNuisanceVehicleASB     CaseType = "nuisance_vehicle_asb"
	CaseTypeUntidyLand             CaseType = "untidy_land"
	CaseTypeHighHedges             CaseType = "high_hedges"
	CaseTypeWasteCarrierLicensing  CaseType = "waste_carrier_licensing"
	CaseTypeComplexEnvironmental   CaseType = "complex_environmental"
)

// AllCaseTypes lists every case type the service accepts.
var AllCaseTypes = []CaseType{
	CaseTypeFlyTipping,
	CaseTypeAbandonedVehicle,
	CaseTypeLittering,
	CaseTypeDogFouling,
	CaseTypePSPODogControl,
	CaseTypeFlyTippingPrivate,
	CaseTypeFlyTippingOrganised,
	CaseTypeNuisanceVehicle,
	CaseTypeNuisanceVehicleSeller,
	CaseTypeNuisanceVehicleParking,
	CaseTypeNuisanceVehicleASB,
	CaseTypeUntidyLand,
	CaseTypeHighHedges,
	CaseTypeWasteCarrierLicensing,
	CaseTypeComplexEnvironmental,
}

// Valid reports whether t is a known case type.
func (t CaseType) Valid() bool {
	for _, known := range AllCaseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// CaseStatus defines the status of a case
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "open"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusClosed     CaseStatus = "closed"
)

// Valid reports whether s is a known case status.
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusClosed:
		return true
	}
	return false
}

// PersonRole defines the role a person holds on a case
type PersonRole string

const (
	PersonRoleReporter PersonRole = "reporter"
	PersonRoleOffender PersonRole = "offender"
)

// Valid reports whether r is a known person role.
func (r PersonRole) Valid() bool {
	return r == PersonRoleReporter || r == PersonRoleOffender
}

// Case is the aggregate root for enforcement cases
type Case struct {
	ID              types.ID   `json:"id"`
	ReferenceNumber string     `json:"reference_number"`
	Type            CaseType   `json:"case_type"`
	Status          CaseStatus `json:"status"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`

	// Linked persons; each role slot holds at most one person
	ReporterID *types.ID `json:"reporter_id,omitempty"`
	OffenderID *types.ID `json:"offender_id,omitempty"`

	// Assignment is informational; visibility never depends on it
	AssignedTo *types.ID `json:"assigned_to,omitempty"`

	CreatedBy types.ID  `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCase creates a new case with validation
func NewCase(caseType CaseType, title, description string, createdBy types.ID) (*Case, error) {
	if !caseType.Valid() {
		return nil, fmt.Errorf("unknown case type: %s", caseType)
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if createdBy.IsZero() {
		return nil, fmt.Errorf("creator is required")
	}

	now := time.Now().UTC()
	return &Case{
		ID:              types.NewID(),
		ReferenceNumber: generateReferenceNumber(caseType),
		Type:            caseType,
		Status:          CaseStatusOpen,
		Title:           title,
		Description:     description,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// PersonInRole returns the occupant of the given role slot, if any.
func (c *Case) PersonInRole(role PersonRole) *types.ID {
	switch role {
	case PersonRoleReporter:
		return c.ReporterID
	case PersonRoleOffender:
		return c.OffenderID
	}
	return nil
}

// SetPersonInRole sets or clears the occupant of a role slot.
func (c *Case) SetPersonInRole(role PersonRole, personID *types.ID) error {
	switch role {
	case PersonRoleReporter:
		c.ReporterID = personID
	case PersonRoleOffender:
		c.OffenderID = personID
	default:
		return fmt.Errorf("unknown person role: %s", role)
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// RolesOf returns every role the given person holds on this case.
func (c *Case) RolesOf(personID types.ID) []PersonRole {
	var roles []PersonRole
	if c.ReporterID != nil && *c.ReporterID == personID {
		roles = append(roles, PersonRoleReporter)
	}
	if c.OffenderID != nil && *c.OffenderID == personID {
		roles = append(roles, PersonRoleOffender)
	}
	return roles
}

// generateReferenceNumber generates a unique reference number
func generateReferenceNumber(caseType CaseType) string {
	// Format: PREFIX-YEAR-SEQUENCE (e.g., FT-2026-000001)
	prefix := map[CaseType]string{
		CaseTypeFlyTipping:             "FT",
		CaseTypeAbandonedVehicle:       "AV",
		CaseTypeLittering:              "LT",
		CaseTypeDogFouling:             "DF",
		CaseTypePSPODogControl:         "PD",
		CaseTypeFlyTippingPrivate:      "FP",
		CaseTypeFlyTippingOrganised:    "FO",
		CaseTypeNuisanceVehicle:        "NV",
		CaseTypeNuisanceVehicleSeller:  "NS",
		CaseTypeNuisanceVehicleParking: "NP",
		CaseTypeNuisanceVehicleASB:     "NA",
		CaseTypeUntidyLand:             "UL",
		CaseTypeHighHedges:             "HH",
		CaseTypeWasteCarrierLicensing:  "WC",
		CaseTypeComplexEnvironmental:   "CE",
	}

	year := time.Now().Year()
	// In production, this would use a database sequence
	seq := time.Now().UnixNano() % 1000000

	return fmt.Sprintf("%s-%d-%06d", prefix[caseType], year, seq)
}
