// Package access define el vocabulario cerrado de roles, recursos y acciones
// y la tabla estática rol -> permisos.
package access

import "fmt"

// Role es el rol de una identidad autenticada.
type Role string

// Resource es la clase de registro sobre la que se decide.
type Resource string

// Action es la operación solicitada sobre un recurso.
type Action string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleSalesRep Role = "sales_rep"
	RoleViewer   Role = "viewer"
)

const (
	ResourceProducts  Resource = "products"
	ResourceCosts     Resource = "costs"
	ResourceCustomers Resource = "customers"
	ResourceDashboard Resource = "dashboard"
	ResourceReports   Resource = "reports"
)

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionView   Action = "view"
	ActionExport Action = "export"
)

// Roles, Resources y Actions enumeran el dominio completo en orden estable.
var (
	Roles     = []Role{RoleAdmin, RoleManager, RoleSalesRep, RoleViewer}
	Resources = []Resource{ResourceProducts, ResourceCosts, ResourceCustomers, ResourceDashboard, ResourceReports}
	Actions   = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionView, ActionExport}
)

// Permission es un par (recurso, acción).
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

func (p Permission) String() string { return string(p.Resource) + ":" + string(p.Action) }

// Valid indica si el rol pertenece al vocabulario.
func (r Role) Valid() bool {
	for _, x := range Roles {
		if x == r {
			return true
		}
	}
	return false
}

func (r Resource) Valid() bool {
	for _, x := range Resources {
		if x == r {
			return true
		}
	}
	return false
}

func (a Action) Valid() bool {
	for _, x := range Actions {
		if x == a {
			return true
		}
	}
	return false
}

// ParseRole convierte un string externo (DB, claims) en Role; rechaza valores desconocidos.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("rol desconocido %q", s)
	}
	return r, nil
}

func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	if !r.Valid() {
		return "", fmt.Errorf("recurso desconocido %q", s)
	}
	return r, nil
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("acción desconocida %q", s)
	}
	return a, nil
}

// table se construye una sola vez en init y no se modifica después.
var table map[Role]map[Permission]struct{}

func init() {
	grant := func(res Resource, acts ...Action) []Permission {
		out := make([]Permission, 0, len(acts))
		for _, a := range acts {
			out = append(out, Permission{Resource: res, Action: a})
		}
		return out
	}
	var all []Permission
	for _, res := range Resources {
		all = append(all, grant(res, Actions...)...)
	}
	byRole := map[Role][][]Permission{
		RoleAdmin: {all},
		RoleManager: {
			grant(ResourceProducts, ActionRead, ActionCreate, ActionUpdate),
			grant(ResourceCosts, ActionRead, ActionCreate, ActionUpdate),
			grant(ResourceCustomers, ActionRead),
			grant(ResourceDashboard, ActionRead),
			grant(ResourceReports, ActionRead, ActionExport),
		},
		RoleSalesRep: {
			grant(ResourceCustomers, ActionRead, ActionCreate, ActionUpdate),
			grant(ResourceProducts, ActionRead),
			grant(ResourceDashboard, ActionRead),
		},
		RoleViewer: {
			grant(ResourceProducts, ActionRead),
			grant(ResourceCosts, ActionRead),
			grant(ResourceCustomers, ActionRead),
			grant(ResourceDashboard, ActionRead),
			grant(ResourceReports, ActionRead),
		},
	}
	table = make(map[Role]map[Permission]struct{}, len(byRole))
	for role, groups := range byRole {
		set := make(map[Permission]struct{})
		for _, g := range groups {
			for _, p := range g {
				set[p] = struct{}{}
			}
		}
		table[role] = set
	}
}

// Allows decide si el rol puede ejecutar la acción sobre el recurso.
// Cualquier valor fuera del vocabulario se deniega.
func Allows(role Role, action Action, resource Resource) bool {
	set, ok := table[role]
	if !ok {
		return false
	}
	_, ok = set[Permission{Resource: resource, Action: action}]
	return ok
}

// Grants devuelve una copia de los permisos del rol en orden estable (recurso, acción).
func Grants(role Role) []Permission {
	set, ok := table[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for _, res := range Resources {
		for _, a := range Actions {
			p := Permission{Resource: res, Action: a}
			if _, ok := set[p]; ok {
				out = append(out, p)
			}
		}
	}
	return out
}
