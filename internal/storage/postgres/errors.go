package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

// Constraint names from migrations/000001_init.up.sql.
const (
	constraintUsername          = "users_username_key"
	constraintEmail             = "users_email_lower_key"
	constraintRegistrationOnce  = "event_registrations_user_event_key"
	constraintRegistrationEvent = "event_registrations_event_id_fkey"
)

// pgErrorCode returns the SQLSTATE and constraint of a server error, if any.
func pgErrorCode(err error) (code string, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error, constraint string) bool {
	code, name := pgErrorCode(err)
	return code == codeUniqueViolation && name == constraint
}

// isInvalidText reports a malformed literal, such as a non-UUID id.
func isInvalidText(err error) bool {
	code, _ := pgErrorCode(err)
	return code == codeInvalidText
}
