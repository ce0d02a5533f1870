package access

import "context"

type rule func(c Caller, s *Scope) bool

func always(Caller, *Scope) bool { return true }

func sameTenant(c Caller, s *Scope) bool {
	return s == nil || (s.TenantID != "" && s.TenantID == c.TenantID)
}

func owner(c Caller, s *Scope) bool {
	return s == nil || (s.OwnerID != "" && s.OwnerID == c.UserID)
}

// policy lists, per entity and role, which operations are allowed and under
// what scope condition. Anything not listed is denied.
var policy = map[Entity]map[Role]map[Operation]rule{
	EntityJob: {
		RoleJobPoster: {
			OpCreate: sameTenant,
			OpRead:   always,
			OpUpdate: sameTenant,
			OpDelete: sameTenant,
		},
		RoleJobApplicant: {
			OpRead: always,
		},
	},
	EntityCompany: {
		RoleJobPoster: {
			OpCreate: sameTenant,
			OpRead:   always,
			OpUpdate: sameTenant,
			OpDelete: sameTenant,
		},
		RoleJobApplicant: {
			OpRead: always,
		},
	},
	EntityApplication: {
		RoleJobPoster: {
			OpRead:   sameTenant,
			OpUpdate: sameTenant,
			OpDelete: sameTenant,
		},
		RoleJobApplicant: {
			OpCreate: owner,
			OpRead:   owner,
			OpUpdate: owner,
			OpDelete: owner,
		},
	},
	EntityUser: {
		RoleJobPoster: {
			OpRead: always,
		},
		RoleJobApplicant: {
			OpRead: owner,
		},
	},
}

// RoleGate evaluates the static role policy in process.
type RoleGate struct{}

func NewRoleGate() *RoleGate {
	return &RoleGate{}
}

func (g *RoleGate) HasAccess(_ context.Context, caller Caller, req Request) (bool, error) {
	return allowed(caller, req.Entity, req.Operation, req.Scope), nil
}

func allowed(caller Caller, entity Entity, op Operation, scope *Scope) bool {
	byRole, ok := policy[entity]
	if !ok {
		return false
	}
	for _, role := range caller.Roles {
		if check, ok := byRole[role][op]; ok && check(caller, scope) {
			return true
		}
	}
	return false
}

// VisibleActions returns the operations caller may perform on the scoped
// resource, in CREATE, READ, UPDATE, DELETE order.
func VisibleActions(caller Caller, entity Entity, scope *Scope) []Operation {
	actions := make([]Operation, 0, len(allOperations))
	for _, op := range allOperations {
		if allowed(caller, entity, op, scope) {
			actions = append(actions, op)
		}
	}
	return actions
}
