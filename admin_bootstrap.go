package dealer

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// ExternalIdentity is what the upstream identity provider asserts about an
// admin. The subsystem never manages admin credentials itself.
type ExternalIdentity struct {
	AuthID   string
	Email    string
	FullName string
}

// AdminBootstrap lazily provisions Admin rows the first time an external
// identity performs an admin action.
type AdminBootstrap struct {
	repo RepositoryManager
}

func NewAdminBootstrap(repo RepositoryManager) *AdminBootstrap {
	return &AdminBootstrap{repo: repo}
}

// ResolveActor maps an external identity to the local Admin row, creating it
// atomically if absent. A failure here aborts the admin action; there is no
// acting without a resolved actor.
func (b *AdminBootstrap) ResolveActor(ctx context.Context, identity ExternalIdentity) (*Admin, error) {
	if identity.AuthID == "" {
		return nil, ErrUnauthenticated
	}

	admin, err := b.repo.Admins().Ensure(ctx, identity.AuthID, identity.Email, identity.FullName)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not resolve admin actor").
			WithTextCode(TextCodeAdminUnresolved)
	}

	return admin, nil
}
