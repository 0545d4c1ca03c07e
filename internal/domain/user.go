package domain

type Role string

const (
	RoleGuide   Role = "GUIDE"
	RoleTourist Role = "TOURIST"
)

func (r Role) Valid() bool {
	return r == RoleGuide || r == RoleTourist
}

type User struct {
	ID       string
	Name     string
	Email    string
	Role     Role
	ImageURL string
	Profile  *Profile
}

type Profile struct {
	Bio       string
	Location  string
	Languages []string
	Expertise []string
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}
