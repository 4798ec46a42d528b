package domain

// Principal is an authenticated caller. The zero value is the anonymous principal.
type Principal struct {
	UserID string
}

func Anonymous() Principal {
	return Principal{}
}

func NewPrincipal(userID string) Principal {
	return Principal{UserID: userID}
}

func (p Principal) IsAnonymous() bool {
	return p.UserID == ""
}
