package main

import (
	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/entities"
)

const (
	// PermissionSetup gates the configuration sub commands.
	PermissionSetup = "setup_command"

	// PermissionTicketAdmin gates ticket administration. Roles holding it
	// also see every ticket channel.
	PermissionTicketAdmin = "ticket_admin"

	// AdminGroupID is the id of the built-in administrator group.
	AdminGroupID = "admin"

	// clearGroupValue removes all groups from a holder when passed in place
	// of a group id.
	clearGroupValue = "_clear_"
)

// newGroupRegistry builds the process-wide permission group registry. The
// registry is immutable after this point; guild records only reference the
// group ids.
func newGroupRegistry() *entities.GroupRegistry {
	return entities.NewGroupRegistry(
		&entities.PermissionGroup{
			ID:   AdminGroupID,
			Name: "Administrator",
			Nodes: []entities.PermissionNode{
				entities.BareNode(PermissionSetup),
				entities.BareNode(PermissionTicketAdmin),
			},
		},
	)
}

// hasPermission reports whether the member may perform the action guarded by
// the given node. Guild administrators always may; otherwise the member's own
// record is checked first, then the record of each role the member holds.
func hasPermission(a IApp, gd *dataaccess.GuildData, member *discordgo.Member, node string) bool {
	if isAdministrator(member) {
		return true
	}

	if gd.User(member.User.ID).HasPermissionNode(node, a.Groups()) {
		return true
	}

	for _, roleID := range member.Roles {
		if gd.Role(roleID).HasPermissionNode(node, a.Groups()) {
			return true
		}
	}
	return false
}
