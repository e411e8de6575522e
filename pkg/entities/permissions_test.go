package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPermissionNode(t *testing.T) {
	admin := &PermissionGroup{
		ID:   "admin",
		Name: "Administrator",
		Nodes: []PermissionNode{
			BareNode("setup_command"),
			BareNode("ticket_admin"),
		},
	}
	mods := &PermissionGroup{
		ID:   "mods",
		Name: "Moderators",
		Nodes: []PermissionNode{
			GroupNode(admin),
		},
	}
	registry := NewGroupRegistry(admin, mods)

	tests := []struct {
		name   string
		holder *PermissionHolder
		node   string
		want   bool
	}{
		{
			name: "direct bare node",
			holder: &PermissionHolder{
				Permissions: PermissionContext{Nodes: []PermissionNode{BareNode("ticket_admin")}},
			},
			node: "ticket_admin",
			want: true,
		},
		{
			name:   "no nodes or groups",
			holder: &PermissionHolder{},
			node:   "ticket_admin",
			want:   false,
		},
		{
			name: "group node matched by its own id",
			holder: &PermissionHolder{
				Permissions: PermissionContext{Nodes: []PermissionNode{GroupNode(admin)}},
			},
			node: "admin",
			want: true,
		},
		{
			name: "node nested inside a group node",
			holder: &PermissionHolder{
				Permissions: PermissionContext{Nodes: []PermissionNode{GroupNode(admin)}},
			},
			node: "setup_command",
			want: true,
		},
		{
			name:   "membership via registry",
			holder: &PermissionHolder{Groups: []string{"admin"}},
			node:   "ticket_admin",
			want:   true,
		},
		{
			name:   "membership via nested group",
			holder: &PermissionHolder{Groups: []string{"mods"}},
			node:   "ticket_admin",
			want:   true,
		},
		{
			name:   "unknown group is ignored",
			holder: &PermissionHolder{Groups: []string{"ghosts"}},
			node:   "ticket_admin",
			want:   false,
		},
		{
			name:   "node not held anywhere",
			holder: &PermissionHolder{Groups: []string{"admin"}},
			node:   "delete_server",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.holder.HasPermissionNode(tt.node, registry))
		})
	}
}

func TestHasPermissionNodeCycle(t *testing.T) {
	a := &PermissionGroup{ID: "a", Name: "A"}
	b := &PermissionGroup{ID: "b", Name: "B"}
	a.Nodes = []PermissionNode{GroupNode(b)}
	b.Nodes = []PermissionNode{GroupNode(a)}
	registry := NewGroupRegistry(a, b)

	h := &PermissionHolder{Groups: []string{"a"}}

	// Must terminate even though a and b reference each other.
	require.False(t, h.HasPermissionNode("missing", registry))
	require.True(t, h.HasPermissionNode("b", registry))
}

func TestPermissionNodeJSON(t *testing.T) {
	raw, err := json.Marshal(BareNode("x"))
	require.NoError(t, err)
	require.Equal(t, `"x"`, string(raw))

	g := &PermissionGroup{ID: "g", Name: "G", Nodes: []PermissionNode{BareNode("y")}}
	raw, err = json.Marshal(GroupNode(g))
	require.NoError(t, err)

	var group PermissionNode
	require.NoError(t, json.Unmarshal(raw, &group))
	require.True(t, group.IsGroup())
	require.Equal(t, "g", group.Group.ID)
	require.Len(t, group.Group.Nodes, 1)

	var bare PermissionNode
	require.NoError(t, json.Unmarshal([]byte(`"z"`), &bare))
	require.False(t, bare.IsGroup())
	require.Equal(t, "z", bare.Bare)
}

func TestAssignGroup(t *testing.T) {
	h := &PermissionHolder{}
	require.True(t, h.Empty())

	h.AssignGroup("admin")
	h.AssignGroup("admin")
	require.Equal(t, []string{"admin"}, h.Groups)
	require.False(t, h.Empty())

	h.ClearGroups()
	require.True(t, h.Empty())

	h.AddNode("setup_command")
	require.False(t, h.Empty())
}

func TestGroupRegistry(t *testing.T) {
	admin := &PermissionGroup{ID: "admin", Name: "Administrator"}
	registry := NewGroupRegistry(admin)

	got, ok := registry.Group("admin")
	require.True(t, ok)
	require.Same(t, admin, got)

	_, ok = registry.Group("missing")
	require.False(t, ok)

	require.Equal(t, []*PermissionGroup{admin}, registry.Groups())
}

func TestHolderJSONShape(t *testing.T) {
	// Fresh holders store arrays, never null.
	u := NewTicketUser("u1")
	u.AssignGroup("admin")
	out, err := json.Marshal(u)
	require.NoError(t, err)
	require.JSONEq(t, `{"memberId":"u1","permissions":{"nodes":[]},"groups":["admin"]}`, string(out))

	// Stored entries round-trip with their unmodelled fields intact.
	stored := `{"roleId":"r1","permissions":{"nodes":["ticket_admin"]},"groups":[],"note":"kept"}`
	var r TicketRole
	require.NoError(t, json.Unmarshal([]byte(stored), &r))
	out, err = json.Marshal(&r)
	require.NoError(t, err)
	require.JSONEq(t, stored, string(out))
}
