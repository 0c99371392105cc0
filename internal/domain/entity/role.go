package entity

// Role names as issued in PassMais access tokens.
const (
	RoleDoctor    = "DOCTOR"
	RolePatient   = "PATIENT"
	RoleSecretary = "SECRETARY"
	RoleAdmin     = "ADMIN"
)
