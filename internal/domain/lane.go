package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Role is a project role that owns a role-derived lane.
type Role string

const (
	RolePlanner  Role = "PLANNER"
	RoleDesigner Role = "DESIGNER"
	RoleFrontend Role = "FRONTEND"
	RoleBackend  Role = "BACKEND"
	RoleAI       Role = "AI"
	RoleDevOps   Role = "DEVOPS"
	RoleQA       Role = "QA"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RolePlanner, RoleDesigner, RoleFrontend, RoleBackend, RoleAI, RoleDevOps, RoleQA:
		return true
	}
	return false
}

const (
	laneRolePrefix   = "ROLE:"
	laneCustomPrefix = "CUSTOM:"

	// MaxCustomLaneName is the maximum length of a custom lane name in runes.
	MaxCustomLaneName = 50
)

// LaneKey identifies a lane inside a project: "ROLE:<role>" or "CUSTOM:<name>".
type LaneKey string

func (k LaneKey) String() string { return string(k) }

// IsRole reports whether the key is role-derived.
func (k LaneKey) IsRole() bool { return strings.HasPrefix(string(k), laneRolePrefix) }

// IsCustom reports whether the key is a user-defined lane.
func (k LaneKey) IsCustom() bool { return strings.HasPrefix(string(k), laneCustomPrefix) }

// LaneAssignment is the caller-supplied input a lane key is derived from.
// Exactly one of Role and CustomName must be set.
type LaneAssignment struct {
	Role       *Role   `json:"role,omitempty"`
	CustomName *string `json:"customName,omitempty"`
}

// ResolveLaneKey derives the stable lane key for an assignment.
// The custom name is trimmed; the same name always yields the same key.
func ResolveLaneKey(a LaneAssignment) (LaneKey, error) {
	switch {
	case a.Role != nil && a.CustomName != nil:
		return "", NewValidationError("lane", "role and custom name are mutually exclusive")
	case a.Role != nil:
		if !a.Role.IsValid() {
			return "", NewValidationError("lane.role", fmt.Sprintf("unknown role %q", *a.Role))
		}
		return LaneKey(laneRolePrefix + string(*a.Role)), nil
	case a.CustomName != nil:
		name := strings.TrimSpace(*a.CustomName)
		if err := validateCustomLaneName(name); err != nil {
			return "", err
		}
		return LaneKey(laneCustomPrefix + name), nil
	default:
		return "", NewValidationError("lane", "role or custom name is required")
	}
}

// ParseLaneKey validates a key string received from a caller (e.g. a URL
// path segment) and returns it in canonical form.
func ParseLaneKey(s string) (LaneKey, error) {
	switch {
	case strings.HasPrefix(s, laneRolePrefix):
		role := Role(strings.TrimPrefix(s, laneRolePrefix))
		return ResolveLaneKey(LaneAssignment{Role: &role})
	case strings.HasPrefix(s, laneCustomPrefix):
		name := strings.TrimPrefix(s, laneCustomPrefix)
		return ResolveLaneKey(LaneAssignment{CustomName: &name})
	default:
		return "", NewValidationError("lane", fmt.Sprintf("malformed lane key %q", s))
	}
}

// Assignment converts the key back into the assignment it was derived from.
func (k LaneKey) Assignment() LaneAssignment {
	if k.IsRole() {
		role := Role(strings.TrimPrefix(string(k), laneRolePrefix))
		return LaneAssignment{Role: &role}
	}
	name := strings.TrimPrefix(string(k), laneCustomPrefix)
	return LaneAssignment{CustomName: &name}
}

func validateCustomLaneName(name string) error {
	if name == "" {
		return NewValidationError("lane.customName", "required")
	}
	if utf8.RuneCountInString(name) > MaxCustomLaneName {
		return NewValidationError("lane.customName", fmt.Sprintf("too long (max %d)", MaxCustomLaneName))
	}
	return nil
}
