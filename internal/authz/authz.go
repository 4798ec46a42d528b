package authz

import (
	"fmt"

	"github.com/nikolayk812/storefront/internal/domain"
)

// Authorize allows p to act on a resource owned by ownerID.
// Anonymous callers get ErrUnauthenticated, everyone but the owner gets ErrForbidden.
func Authorize(p domain.Principal, ownerID string) error {
	if p.IsAnonymous() {
		return domain.ErrUnauthenticated
	}

	if ownerID == "" || p.UserID != ownerID {
		return fmt.Errorf("user[%s] does not own the resource: %w", p.UserID, domain.ErrForbidden)
	}

	return nil
}

// RequireAuthenticated rejects the anonymous principal.
func RequireAuthenticated(p domain.Principal) error {
	if p.IsAnonymous() {
		return domain.ErrUnauthenticated
	}
	return nil
}
