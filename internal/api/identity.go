package api

import (
	"net/http"

	interf "github.com/fabioluiz1/thanx-take-home/internal/interfaces"
	model "github.com/fabioluiz1/thanx-take-home/internal/models"
	"github.com/google/uuid"
)

// IdentityResolver turns an incoming request into the acting user id.
// The engine never sees a request, only the resolved id, so any real
// identity provider can be plugged in here.
type IdentityResolver interface {
	Resolve(r *http.Request) (uuid.UUID, error)
}

const userHeader = "X-User-Id"

// HeaderIdentity trusts the X-User-Id header. A missing or malformed
// header resolves to no user.
type HeaderIdentity struct{}

func (HeaderIdentity) Resolve(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(userHeader)
	if raw == "" {
		return uuid.Nil, model.ErrUserNotFound
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.ErrUserNotFound
	}
	return id, nil
}

// DemoIdentity is the development-mode strategy: it tries the wrapped
// resolver and falls back to the oldest user when the header is absent
// or names an unknown user. Never use in front of real traffic.
type DemoIdentity struct {
	Next IdentityResolver
	DB   interf.RewardsStorage
}

func (d DemoIdentity) Resolve(r *http.Request) (uuid.UUID, error) {
	id, err := d.Next.Resolve(r)
	if err == nil {
		if _, gerr := d.DB.GetUser(r.Context(), id); gerr == nil {
			return id, nil
		}
	}
	user, err := d.DB.GetFirstUser(r.Context())
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
