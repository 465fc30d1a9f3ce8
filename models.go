package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is the application side of an account. The row shares its primary
// key with the backend identity; there is no separate foreign key column.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`

	ID        uuid.UUID  `bun:"id,pk,notnull" json:"id"`
	Username  *string    `bun:"username" json:"username"`
	FullName  *string    `bun:"full_name" json:"full_name"`
	Website   *string    `bun:"website" json:"website"`
	AvatarURL *string    `bun:"avatar_url" json:"avatar_url"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// DisplayName is what templates show for the profile owner.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return ""
}

// Complete reports whether the owner has filled in the minimum profile
// fields after confirming their email.
func (p *Profile) Complete() bool {
	return p != nil && p.Username != nil && *p.Username != ""
}

// NullableString maps empty form input to NULL so blank submissions never
// overwrite a column with "".
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
