package dashboard

import (
	"tyredash/internal/models"
	"tyredash/internal/timestamp"
	"tyredash/internal/util"
)

const defaultRole = "Engineer"

// Profile is the signed-in engineer as shown in the header and details card
type Profile struct {
	DisplayName string
	FirstName   string
	Email       string
	Role        string
	AvatarURL   string
	MemberSince string
	LastLogin   string
}

// NewProfile derives display fields from u. Missing facts become the
// placeholder glyph or the default role.
func NewProfile(u *models.User, n timestamp.Normalizer) Profile {
	if u == nil {
		u = &models.User{}
	}

	local := util.EmailLocalPart(u.Email)
	name := util.FirstNonEmpty(u.Name, u.FullName, local, defaultRole)

	return Profile{
		DisplayName: name,
		FirstName:   util.FirstNonEmpty(util.FirstWord(name), local, defaultRole),
		Email:       util.FirstNonEmpty(u.Email, timestamp.Placeholder),
		Role:        util.FirstNonEmpty(u.Role, defaultRole),
		AvatarURL:   u.AvatarURL,
		MemberSince: n.FormatDate(u.CreatedAt),
		LastLogin:   n.FormatDateTime(u.LastLogin),
	}
}
