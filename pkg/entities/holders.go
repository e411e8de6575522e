package entities

import "encoding/json"

// TicketUser is the per-guild permission record of a member.
type TicketUser struct {
	// MemberID is the ID of the member.
	MemberID string `json:"memberId"`

	PermissionHolder

	// wire is the stored object the record was decoded from.
	wire wireObject
}

// NewTicketUser creates an empty permission record for a member.
func NewTicketUser(memberID string) *TicketUser {
	return &TicketUser{
		MemberID: memberID,
	}
}

// MarshalJSON implements the json.Marshaler interface. The stored shape
// always carries arrays for the permission nodes and groups, and fields this
// program does not model are merged back from the decoded entry.
func (u TicketUser) MarshalJSON() ([]byte, error) {
	o := u.wire.clone()
	for _, err := range []error{
		o.set("memberId", u.MemberID),
		o.set("permissions", u.Permissions),
		o.set("groups", nonNilStrings(u.Groups)),
	} {
		if err != nil {
			return nil, err
		}
	}
	return o.encode()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (u *TicketUser) UnmarshalJSON(data []byte) error {
	type plain TicketUser
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	wire, err := decodeWireObject(data)
	if err != nil {
		return err
	}
	*u = TicketUser(p)
	u.wire = wire
	return nil
}

// TicketRole is the per-guild permission record of a role.
type TicketRole struct {
	// RoleID is the ID of the role.
	RoleID string `json:"roleId"`

	PermissionHolder

	// wire is the stored object the record was decoded from.
	wire wireObject
}

// NewTicketRole creates an empty permission record for a role.
func NewTicketRole(roleID string) *TicketRole {
	return &TicketRole{
		RoleID: roleID,
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (r TicketRole) MarshalJSON() ([]byte, error) {
	o := r.wire.clone()
	for _, err := range []error{
		o.set("roleId", r.RoleID),
		o.set("permissions", r.Permissions),
		o.set("groups", nonNilStrings(r.Groups)),
	} {
		if err != nil {
			return nil, err
		}
	}
	return o.encode()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *TicketRole) UnmarshalJSON(data []byte) error {
	type plain TicketRole
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	wire, err := decodeWireObject(data)
	if err != nil {
		return err
	}
	*r = TicketRole(p)
	r.wire = wire
	return nil
}

// nonNilStrings normalizes a nil slice to an empty one so the stored shape
// is an array rather than null.
func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
