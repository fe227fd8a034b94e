package user

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is the closed set of account roles. The zero value is RolePending.
type Role uint8

const (
	RolePending Role = iota
	RoleUser
	RoleStudent
	RoleTeacher
	RoleAdmin
)

var roleNames = [...]string{
	RolePending: "pending",
	RoleUser:    "user",
	RoleStudent: "student",
	RoleTeacher: "teacher",
	RoleAdmin:   "admin",
}

func ParseRole(s string) (Role, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for i, name := range roleNames {
		if name == want {
			return Role(i), nil
		}
	}
	return RolePending, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores roles by name so the column stays readable.
func (r Role) Value() (driver.Value, error) { return r.String(), nil }

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = RolePending
		return nil
	default:
		return fmt.Errorf("role: unsupported scan type %T", src)
	}
}

// Capability is a role-level permission, independent of any course.
type Capability uint16

const (
	CapUpload Capability = 1 << iota
	CapInstruct
	CapView
	CapManageUsers
	CapManagePermissions
	CapAccessWorkspace
	CapUploadDocuments
	CapEditDocuments
	CapDeleteDocuments
	CapSubmitCode
)

var capabilityNames = map[Capability]string{
	CapUpload:            "can_upload",
	CapInstruct:          "can_instruct",
	CapView:              "can_view",
	CapManageUsers:       "can_manage_users",
	CapManagePermissions: "can_manage_permissions",
	CapAccessWorkspace:   "can_access_workspace",
	CapUploadDocuments:   "can_upload_documents",
	CapEditDocuments:     "can_edit_documents",
	CapDeleteDocuments:   "can_delete_documents",
	CapSubmitCode:        "can_submit_code",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", uint16(c))
}

const teacherCaps = CapUpload | CapInstruct | CapView | CapAccessWorkspace |
	CapUploadDocuments | CapEditDocuments | CapDeleteDocuments | CapSubmitCode

var roleCapabilities = [...]Capability{
	RolePending: 0,
	RoleUser:    0,
	RoleStudent: CapView | CapAccessWorkspace | CapSubmitCode,
	RoleTeacher: teacherCaps,
	RoleAdmin:   teacherCaps | CapManageUsers | CapManagePermissions,
}

// Can reports whether the role carries the capability.
func (r Role) Can(c Capability) bool {
	if int(r) >= len(roleCapabilities) {
		return false
	}
	return roleCapabilities[r]&c == c
}

// Capabilities lists the named capabilities held by the role, in table order.
func (r Role) Capabilities() map[string]bool {
	out := make(map[string]bool, len(capabilityNames))
	for c, name := range capabilityNames {
		out[name] = r.Can(c)
	}
	return out
}
