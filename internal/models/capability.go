package models

type Capability string

const (
	CapView          Capability = "view"
	CapPost          Capability = "post"
	CapEditOwnPost   Capability = "editownpost"
	CapDeleteOwnPost Capability = "deleteownpost"
	CapModerate      Capability = "moderate"
	CapManage        Capability = "manage"
)

type Role string

const (
	RoleGuest   Role = "guest"
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleStudent, RoleTeacher, RoleManager:
		return true
	}
	return false
}

// Permissions is the capability summary handed to the client.
type Permissions struct {
	CanView     bool `json:"canview"`
	CanPost     bool `json:"canpost"`
	CanModerate bool `json:"canmoderate"`
	CanManage   bool `json:"canmanage"`
}
