// internal/domain/session/entity.go
package session

import "time"

// Roles an identity can hold
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleVendor   = "vendor"
)

// Identity is the signed-in visitor
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawUser is the identity payload as the gateway returns it. Profile fields
// travel as free-form metadata.
type RawUser struct {
	ID        string
	Email     string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Profile is the metadata sent along with a new account
type Profile struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Metadata returns the profile as gateway metadata
func (p Profile) Metadata() map[string]string {
	metadata := map[string]string{"full_name": p.FullName}
	if p.Phone != "" {
		metadata["phone"] = p.Phone
	}
	if p.Role != "" {
		metadata["role"] = p.Role
	}
	return metadata
}

// NormalizeIdentity converts a raw gateway user into an Identity
func NormalizeIdentity(raw *RawUser) *Identity {
	if raw == nil {
		return nil
	}

	identity := &Identity{
		ID:        raw.ID,
		Email:     raw.Email,
		FullName:  raw.Metadata["full_name"],
		AvatarURL: raw.Metadata["avatar_url"],
		Phone:     raw.Metadata["phone"],
		Role:      raw.Metadata["role"],
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.CreatedAt,
	}

	switch identity.Role {
	case RoleCustomer, RoleAdmin, RoleVendor:
	default:
		identity.Role = RoleCustomer
	}

	if raw.UpdatedAt != nil && !raw.UpdatedAt.IsZero() {
		identity.UpdatedAt = *raw.UpdatedAt
	}

	return identity
}
