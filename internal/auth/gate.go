package auth

import (
	"fmt"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/logger"
	"slices"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// Operation is an action guarded by the Gate.
type Operation string

const (
	OpCreate         Operation = "create"
	OpUpdate         Operation = "update"
	OpDelete         Operation = "delete"
	OpListAll        Operation = "list_all" // admin listings and non-published reads
	OpManageTaxonomy Operation = "manage_taxonomy"
)

// Scope limits a capability to the actor's own resources.
type Scope string

const (
	ScopeAny Scope = "any"
	ScopeOwn Scope = "own"
)

// Capability grants a role an operation within a scope.
type Capability struct {
	Op    Operation
	Role  Role
	Scope Scope
}

// Capabilities is the capability table. Contributors hold none: they are
// read-only as far as content is concerned.
var Capabilities = []Capability{
	{OpCreate, RoleSuperAdmin, ScopeAny},
	{OpCreate, RoleEditor, ScopeAny},
	{OpCreate, RoleAuthor, ScopeAny},

	{OpUpdate, RoleSuperAdmin, ScopeAny},
	{OpUpdate, RoleEditor, ScopeAny},
	{OpUpdate, RoleAuthor, ScopeOwn},

	{OpDelete, RoleSuperAdmin, ScopeAny},
	{OpDelete, RoleEditor, ScopeAny},

	{OpListAll, RoleSuperAdmin, ScopeAny},
	{OpListAll, RoleEditor, ScopeAny},
	{OpListAll, RoleAuthor, ScopeOwn},

	{OpManageTaxonomy, RoleSuperAdmin, ScopeAny},
	{OpManageTaxonomy, RoleEditor, ScopeAny},
}

// RequiredRoles returns the roles holding any capability for op.
func RequiredRoles(op Operation) []Role {
	var roles []Role
	for _, c := range Capabilities {
		if c.Op == op && !slices.Contains(roles, c.Role) {
			roles = append(roles, c.Role)
		}
	}
	return roles
}

// The request carries the ownership relation between actor and resource:
// "none" when the resource has no owner notion, "own" or "other" otherwise.
const modelText = `
[request_definition]
r = role, op, ownership

[policy_definition]
p = role, op, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.role == p.role && r.op == p.op && (p.scope == "any" || r.ownership != "other")
`

// EnforcerOptions selects where policies live. An empty DriverName keeps them in memory.
type EnforcerOptions struct {
	DriverName     string
	DataSourceName string
}

// NewEnforcer creates a casbin enforcer for the capability model. With a
// driver configured the policies are stored in the casbin_rule table through
// the sqlx adapter and loaded from there.
func NewEnforcer(opts EnforcerOptions) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	if opts.DriverName == "" {
		return casbin.NewEnforcer(m)
	}

	adapter := sqlxadapter.NewAdapterFromOptions(&sqlxadapter.AdapterOptions{
		DriverName:     opts.DriverName,
		DataSourceName: opts.DataSourceName,
		TableName:      "casbin_rule",
	})
	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// SeedPolicies writes the capability table into the enforcer. Existing
// policies are skipped, so it is safe to run on every start.
func SeedPolicies(e casbin.IEnforcer, log logger.Logger) error {
	log.Info("Seeding capability policies...")
	for _, c := range Capabilities {
		p := []string{string(c.Role), string(c.Op), string(c.Scope)}
		has, err := e.HasPolicy(p)
		if err != nil {
			return fmt.Errorf("failed to check policy %v: %w", p, err)
		}
		if has {
			continue
		}
		if _, err := e.AddPolicy(p); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	log.Info("Policy seeding complete.")
	return nil
}

// Gate evaluates operations against the capability table.
type Gate struct {
	enforcer casbin.IEnforcer
}

// NewGate wraps a seeded enforcer.
func NewGate(e casbin.IEnforcer) *Gate {
	return &Gate{enforcer: e}
}

// NewMemoryGate builds an in-memory enforcer seeded with the capability table.
func NewMemoryGate() (*Gate, error) {
	e, err := NewEnforcer(EnforcerOptions{})
	if err != nil {
		return nil, err
	}
	if err := SeedPolicies(e, logger.Nop()); err != nil {
		return nil, err
	}
	return NewGate(e), nil
}

// Authorize checks op for actor against res. The role check runs first
// through the package-level Authorize; the enforcer then decides ownership.
func (g *Gate) Authorize(actor *Actor, op Operation, res *Resource) error {
	if err := Authorize(actor, RequiredRoles(op), nil); err != nil {
		return err
	}

	allowed, err := g.enforcer.Enforce(string(actor.Role), string(op), ownership(actor, res))
	if err != nil {
		return apperr.Internal(err, "authorization check failed")
	}
	if !allowed {
		return apperr.Forbidden("authors may only modify their own content")
	}
	return nil
}

// Can is Authorize reduced to a boolean.
func (g *Gate) Can(actor *Actor, op Operation, res *Resource) bool {
	return g.Authorize(actor, op, res) == nil
}

func ownership(actor *Actor, res *Resource) string {
	switch {
	case res == nil || !res.Owned:
		return "none"
	case res.ownedBy(actor.ID):
		return "own"
	default:
		return "other"
	}
}
