package entities

import (
	"encoding/json"
	"fmt"
)

// PermissionNode is a single entry in a permission context. A node is either
// a bare permission string or a nested group carrying its own nodes. The two
// shapes share one wire format: a JSON string for bare nodes and a JSON
// object for groups.
type PermissionNode struct {
	// Bare is the permission string. Only set when Group is nil.
	Bare string

	// Group is the nested group. Takes precedence over Bare when set.
	Group *PermissionGroup
}

// BareNode creates a node from a permission string.
func BareNode(id string) PermissionNode {
	return PermissionNode{Bare: id}
}

// GroupNode creates a node from a nested group.
func GroupNode(g *PermissionGroup) PermissionNode {
	return PermissionNode{Group: g}
}

// IsGroup reports whether the node is a nested group.
func (n PermissionNode) IsGroup() bool {
	return n.Group != nil
}

// MarshalJSON implements the json.Marshaler interface.
func (n PermissionNode) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	return json.Marshal(n.Bare)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *PermissionNode) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty permission node")
	}

	// A bare node is a JSON string; anything else has to be a group object.
	if data[0] == '"' {
		return json.Unmarshal(data, &n.Bare)
	}

	g := new(PermissionGroup)
	if err := json.Unmarshal(data, g); err != nil {
		return fmt.Errorf("error unmarshalling permission group: %w", err)
	}
	n.Group = g
	return nil
}

// PermissionGroup is a named bundle of permission nodes.
type PermissionGroup struct {
	// ID is the identifier of the group.
	ID string `json:"id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Nodes are the permission nodes the group carries.
	Nodes []PermissionNode `json:"nodes"`
}

// PermissionContext is an ordered set of permission nodes.
type PermissionContext struct {
	// Nodes are the permission nodes of the context.
	Nodes []PermissionNode `json:"nodes"`
}

// MarshalJSON implements the json.Marshaler interface. An empty context
// encodes its nodes as an empty array rather than null, matching the stored
// wire format.
func (c PermissionContext) MarshalJSON() ([]byte, error) {
	nodes := c.Nodes
	if nodes == nil {
		nodes = []PermissionNode{}
	}
	return json.Marshal(struct {
		Nodes []PermissionNode `json:"nodes"`
	}{Nodes: nodes})
}

// GroupRegistry is the process-wide set of globally defined permission
// groups. It is built once at startup and never mutated afterwards; callers
// receive it by reference instead of reaching for a package variable.
type GroupRegistry struct {
	// order preserves the definition order of the groups.
	order []*PermissionGroup

	// byID indexes the groups by their identifier.
	byID map[string]*PermissionGroup
}

// NewGroupRegistry creates a registry over the given groups. Later
// definitions win when two groups share an id.
func NewGroupRegistry(groups ...*PermissionGroup) *GroupRegistry {
	r := &GroupRegistry{
		order: make([]*PermissionGroup, 0, len(groups)),
		byID:  make(map[string]*PermissionGroup, len(groups)),
	}
	for _, g := range groups {
		if _, ok := r.byID[g.ID]; !ok {
			r.order = append(r.order, g)
		}
		r.byID[g.ID] = g
	}
	return r
}

// Group returns the group with the given id.
func (r *GroupRegistry) Group(id string) (*PermissionGroup, bool) {
	g, ok := r.byID[id]
	return g, ok
}

// Groups returns the groups in definition order.
func (r *GroupRegistry) Groups() []*PermissionGroup {
	out := make([]*PermissionGroup, len(r.order))
	copy(out, r.order)
	return out
}

// PermissionHolder attaches permission nodes and group memberships to a
// user or role record.
type PermissionHolder struct {
	// Permissions are the nodes held directly.
	Permissions PermissionContext `json:"permissions"`

	// Groups are the ids of globally defined groups the holder belongs to.
	Groups []string `json:"groups"`
}

// Empty reports whether the holder carries no nodes and no groups. Empty
// holders are pruned from storage on save.
func (h *PermissionHolder) Empty() bool {
	return len(h.Permissions.Nodes) == 0 && len(h.Groups) == 0
}

// AddNode appends a bare permission node.
func (h *PermissionHolder) AddNode(id string) {
	h.Permissions.Nodes = append(h.Permissions.Nodes, BareNode(id))
}

// AssignGroup adds the holder to the given group. Assigning a group the
// holder already has is a no-op.
func (h *PermissionHolder) AssignGroup(id string) {
	for _, g := range h.Groups {
		if g == id {
			return
		}
	}
	h.Groups = append(h.Groups, id)
}

// ClearGroups removes all group memberships.
func (h *PermissionHolder) ClearGroups() {
	h.Groups = nil
}

// HasPermissionNode checks whether the holder resolves the given permission
// id, either through its direct nodes or through any of its groups in the
// registry. A node matches when it is the literal string id, a group whose
// own id equals the queried id, or a group whose nodes contain a match.
func (h *PermissionHolder) HasPermissionNode(id string, registry *GroupRegistry) bool {
	visited := make(map[*PermissionGroup]struct{})
	if nodesContain(id, h.Permissions.Nodes, visited) {
		return true
	}

	if registry == nil {
		return false
	}
	for _, gid := range h.Groups {
		g, ok := registry.Group(gid)
		if !ok {
			continue
		}
		if _, seen := visited[g]; seen {
			continue
		}
		visited[g] = struct{}{}
		if nodesContain(id, g.Nodes, visited) {
			return true
		}
	}
	return false
}

// nodesContain walks the node tree looking for id. The visited set guards
// against groups that reference themselves or each other.
func nodesContain(id string, nodes []PermissionNode, visited map[*PermissionGroup]struct{}) bool {
	for _, n := range nodes {
		if n.Group == nil {
			if n.Bare == id {
				return true
			}
			continue
		}

		g := n.Group
		if g.ID == id {
			return true
		}
		if _, seen := visited[g]; seen {
			continue
		}
		visited[g] = struct{}{}
		if nodesContain(id, g.Nodes, visited) {
			return true
		}
	}
	return false
}
