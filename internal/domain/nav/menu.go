package nav

// Package nav holds the static menu tree and the role filter that derives
// the visible navigation for a given user.

import (
	domainauth "github.com/fedefazz/laf-dashboard/internal/domain/auth"
)

// Node is one entry of the navigation tree. Route is empty for pure group
// nodes. Roles is an any-of set: a user carrying one of them sees the node.
type Node struct {
	Label    string
	Icon     string
	Route    string
	Roles    []domainauth.Role
	Children []Node

	// Active is set by Filter when Route matches the current path.
	Active bool
}

// Filter returns the subtree of menu visible to user, marking the node whose
// route equals currentPath as active. A group node whose children all fail
// the role filter is dropped entirely.
func Filter(menu []Node, user domainauth.User, currentPath string) []Node {
	out := make([]Node, 0, len(menu))
	for _, n := range menu {
		if !user.HasAnyRole(n.Roles...) {
			continue
		}
		kept := n
		kept.Active = n.Route != "" && n.Route == currentPath
		if len(n.Children) > 0 {
			kept.Children = Filter(n.Children, user, currentPath)
			if len(kept.Children) == 0 {
				// A parent that exists only to group now-invisible children
				// must not render as an empty group.
				continue
			}
			for _, c := range kept.Children {
				if c.Active {
					kept.Active = true
				}
			}
		}
		out = append(out, kept)
	}
	return out
}

// DefaultMenu is the static navigation tree of the dashboard.
func DefaultMenu() []Node {
	everyone := []domainauth.Role{
		domainauth.RoleAdmin,
		domainauth.RoleSupervisor,
		domainauth.RoleEmployee,
	}
	supervisors := []domainauth.Role{
		domainauth.RoleAdmin,
		domainauth.RoleSupervisor,
	}
	admins := []domainauth.Role{domainauth.RoleAdmin}

	return []Node{
		{Label: "Dashboard", Icon: "gauge", Route: "/dashboard", Roles: everyone},
		{Label: "Machines", Icon: "cog", Route: "/machines", Roles: everyone},
		{Label: "Scrap", Icon: "trash", Roles: supervisors, Children: []Node{
			{Label: "Records", Icon: "list", Route: "/scraps", Roles: supervisors},
			{Label: "Material Types", Icon: "tag", Route: "/scraps/materials", Roles: admins},
		}},
		{Label: "Administration", Icon: "shield", Roles: admins, Children: []Node{
			{Label: "Operators", Icon: "users", Route: "/admin/operators", Roles: admins},
			{Label: "Products", Icon: "box", Route: "/admin/products", Roles: admins},
		}},
	}
}
