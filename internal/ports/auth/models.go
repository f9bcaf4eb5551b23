package auth

// RoleOwner es el único rol con privilegios: verify/reject/delete/purge.
const RoleOwner = "owner"

// Claims representa la información extraída del token de sesión.
type Claims struct {
	Subject string
	Role    string
}

func (c Claims) IsOwner() bool {
	return c.Role == RoleOwner
}
