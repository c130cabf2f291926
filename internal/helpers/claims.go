package helpers

// EnhancedClaims is the authenticated caller as set on the gin context by
// the auth middleware. Role and Timezone come from the stored profile, not
// from the token, so a role change applies on the next request.
type EnhancedClaims struct {
	*CustomClaims
	UserID   string `json:"id"`
	Role     string `json:"role"`
	Timezone string `json:"timezone,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.HasRole("admin")
}

func (ec *EnhancedClaims) HasRole(role string) bool {
	return ec.Role == role
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}
