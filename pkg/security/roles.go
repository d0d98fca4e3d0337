package security

import "strings"

// RoleName 角色，封闭集合
type RoleName string

const (
	RoleUser      RoleName = "USER"
	RoleModerator RoleName = "MODERATOR"
	RoleAdmin     RoleName = "ADMIN"
)

// Valid 是否为已知角色
func (r RoleName) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ParseRoleName 解析角色名，兼容 admin / ROLE_ADMIN 写法
func ParseRoleName(s string) (RoleName, bool) {
	name := RoleName(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	return name, name.Valid()
}

// impliedRoles 角色蕴含关系，仅在鉴权时展开，不落库
var impliedRoles = map[RoleName][]RoleName{
	RoleAdmin: {RoleModerator},
}

// Expand 返回有效权限集合（含蕴含角色），保持首次出现顺序
func Expand(roles []RoleName) []RoleName {
	seen := make(map[RoleName]bool, len(roles)+1)
	out := make([]RoleName, 0, len(roles)+1)
	queue := append([]RoleName(nil), roles...)
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
		queue = append(queue, impliedRoles[r]...)
	}
	return out
}

// HasAuthority 判断角色集合（展开后）是否包含 required
func HasAuthority(roles []RoleName, required RoleName) bool {
	for _, r := range Expand(roles) {
		if r == required {
			return true
		}
	}
	return false
}

// Principal 已认证身份
type Principal struct {
	UserID   string
	Username string
	Roles    []RoleName
}

// HasRole 判断身份是否具备角色
func (p *Principal) HasRole(role RoleName) bool {
	return p != nil && HasAuthority(p.Roles, role)
}

// IsAdmin 是否管理员
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// IsModerator 是否版主（管理员蕴含版主）
func (p *Principal) IsModerator() bool {
	return p.HasRole(RoleModerator)
}

// Authorities 有效权限列表
func (p *Principal) Authorities() []RoleName {
	if p == nil {
		return nil
	}
	return Expand(p.Roles)
}
