// Package access decides which operations a caller may perform on an entity.
//
// Handlers consult a Gate before every mutation and before reads that could
// cross a tenant boundary. The same rules feed VisibleActions so clients can
// hide what the server would refuse anyway.
package access

import (
	"context"
	"net/http"

	apperrors "github.com/justsurfingit/job-board/internal/errors"
)

type Operation string

const (
	OpCreate Operation = "CREATE"
	OpRead   Operation = "READ"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

var allOperations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete}

type Entity string

const (
	EntityJob         Entity = "job"
	EntityApplication Entity = "application"
	EntityUser        Entity = "user"
	EntityCompany     Entity = "company"
)

type Role string

const (
	RoleJobPoster    Role = "job-poster"
	RoleJobApplicant Role = "job-applicant"
)

// Caller is the resolved identity of whoever issued a request. It is passed
// explicitly to every service call.
type Caller struct {
	// UserID is the local users.id of the caller.
	UserID string `json:"userId"`
	// AuthID is the identity platform's id (users.roq_user_id).
	AuthID   string `json:"roqUserId"`
	TenantID string `json:"tenantId"`
	Roles    []Role `json:"roles"`
}

func (c Caller) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Scope narrows a check to one resource. A nil Scope asks about the entity
// collection as a whole (list endpoints), which list queries then filter.
type Scope struct {
	// TenantID is the tenant that owns the resource (a job's company tenant).
	TenantID string
	// OwnerID is the users.id that owns the resource, if any.
	OwnerID string
}

type Request struct {
	Entity    Entity
	Operation Operation
	Scope     *Scope
}

type Gate interface {
	HasAccess(ctx context.Context, caller Caller, req Request) (bool, error)
}

// Authorize runs the gate and turns a denial into an UNAUTHORIZED error.
func Authorize(ctx context.Context, gate Gate, caller Caller, req Request) error {
	ok, err := gate.HasAccess(ctx, caller, req)
	if err != nil {
		return apperrors.Unavailable("access check failed", err)
	}
	if !ok {
		return apperrors.Unauthorized(
			"not allowed to "+string(req.Operation)+" "+string(req.Entity), nil)
	}
	return nil
}

// OperationForMethod maps an HTTP method onto the operation it performs.
func OperationForMethod(method string) (Operation, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return OpRead, true
	case http.MethodPost:
		return OpCreate, true
	case http.MethodPut, http.MethodPatch:
		return OpUpdate, true
	case http.MethodDelete:
		return OpDelete, true
	}
	return "", false
}
