// Package permission 顾问能力集合。ROOT 角色拥有全部能力，不再作为集合中的特殊键。
package permission

import "staffhub/backend/internal/model"

// Permission 单项能力
type Permission string

const (
	ReadAllProjects Permission = "CAN_READ_ALL_PROJECTS"
	EditAllProjects Permission = "CAN_EDIT_ALL_PROJECTS"
	CreateProjects  Permission = "CAN_CREATE_PROJECTS"
	ReadCandidates  Permission = "CAN_READ_CANDIDATES"
	EditCandidates  Permission = "CAN_EDIT_CANDIDATES"
)

// All 全部已知能力
var All = []Permission{ReadAllProjects, EditAllProjects, CreateProjects, ReadCandidates, EditCandidates}

// Valid 是否为已知能力
func (p Permission) Valid() bool {
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}

// Set 能力集合
type Set struct {
	root  bool
	perms map[Permission]struct{}
}

// NewSet 由能力列表构建集合，未知值被忽略
func NewSet(perms ...Permission) Set {
	s := Set{perms: make(map[Permission]struct{}, len(perms))}
	for _, p := range perms {
		if p.Valid() {
			s.perms[p] = struct{}{}
		}
	}
	return s
}

// RootSet 拥有全部能力的集合
func RootSet() Set {
	return Set{root: true}
}

// ForConsultant 由顾问记录构建集合
func ForConsultant(c *model.Consultant) Set {
	if c == nil {
		return Set{}
	}
	if c.Role == model.ConsultantRoleRoot {
		return RootSet()
	}
	perms := make([]Permission, 0, len(c.Permissions))
	for _, p := range c.Permissions {
		perms = append(perms, Permission(p))
	}
	return NewSet(perms...)
}

// Has 是否拥有能力 p
func (s Set) Has(p Permission) bool {
	if s.root {
		return true
	}
	_, ok := s.perms[p]
	return ok
}

// IsRoot 是否为 ROOT
func (s Set) IsRoot() bool { return s.root }

// List 返回集合中的能力（ROOT 返回全部）
func (s Set) List() []Permission {
	if s.root {
		return append([]Permission(nil), All...)
	}
	out := make([]Permission, 0, len(s.perms))
	for _, p := range All {
		if _, ok := s.perms[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
