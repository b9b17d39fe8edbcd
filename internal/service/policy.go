package service

import "meetapp/internal/errors"

// authorize is the ownership rule shared by meetups and bookings: only the
// user who owns a resource may change or remove it.
func authorize(actorID, ownerID uint) error {
	if actorID == 0 || actorID != ownerID {
		return errors.ErrForbidden
	}
	return nil
}
