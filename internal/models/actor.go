package models

// Actor is the already-authenticated user requesting a transition.
// Authentication and session handling live outside the engine.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Role is the actor's permission role
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCustomerCare Role = "customer-care"
	RoleTechnician   Role = "technician"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomerCare, RoleTechnician:
		return true
	}
	return false
}

// IsStaff reports whether the role bypasses the technician-assignment check
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCustomerCare
}

// IsAssignedTechnician reports whether the actor is the technician currently
// responsible for the device
func (a Actor) IsAssignedTechnician(d *Device) bool {
	return a.Role == RoleTechnician && d.AssignedTechnicianID != "" && d.AssignedTechnicianID == a.ID
}
