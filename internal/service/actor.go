package service

import "github.com/noah-isme/campus-forum-api/internal/models"

// Capabilities are the moderation grants held by an actor.
type Capabilities struct {
	LockThread     bool
	DeleteAnyReply bool
	ChangeUser     bool
	Superuser      bool
}

// Actor is the identity on whose behalf an operation runs. The zero value is anonymous.
type Actor struct {
	ID           uint
	Capabilities Capabilities
}

// ActorFromUser derives an actor from a stored account. Superusers hold every grant.
func ActorFromUser(user models.User) Actor {
	return Actor{
		ID: user.ID,
		Capabilities: Capabilities{
			LockThread:     user.CanLockThread || user.IsSuperuser,
			DeleteAnyReply: user.CanDeleteAnyReply || user.IsSuperuser,
			ChangeUser:     user.CanChangeUser || user.IsSuperuser,
			Superuser:      user.IsSuperuser,
		},
	}
}

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool {
	return a.ID != 0
}

// Has reports whether the actor holds the named permission.
func (a Actor) Has(permission string) bool {
	switch permission {
	case models.PermLockThread:
		return a.Capabilities.LockThread
	case models.PermDeleteAnyReply:
		return a.Capabilities.DeleteAnyReply
	case models.PermChangeUser:
		return a.Capabilities.ChangeUser
	case models.PermSuperuser:
		return a.Capabilities.Superuser
	default:
		return false
	}
}

func requireAuthenticated(actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func requirePermission(actor Actor, permission string) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.Has(permission) {
		return ErrPermissionDenied
	}
	return nil
}
