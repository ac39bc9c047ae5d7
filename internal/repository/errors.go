// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios and choose an HTTP
// status deterministically. For example, ErrUsernameExists and
// ErrEmailExists signal unique-constraint violations during signup, while
// ErrConstraint signals a missing foreign-key target when assigning a role.
package repository

import "errors"

// ErrEmailExists is returned when an insert or update collides with the
// unique index on users.email. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already registered")

// ErrUsernameExists is returned when an insert or update collides with the
// unique index on users.username. Handlers translate this into HTTP 409.
var ErrUsernameExists = errors.New("username already taken")

// ErrRoleExists is returned when creating a role whose name is already
// present in the roles table. Handlers translate this into HTTP 409.
var ErrRoleExists = errors.New("role already exists")

// ErrConstraint is returned when a write fails referential integrity, such
// as assigning a role to a user id that does not exist. Handlers translate
// this into HTTP 400.
var ErrConstraint = errors.New("constraint violation")
