package postgres

import (
	"context"
	"strings"
)

// isBindParameterMismatch matches the error a transaction-mode pooler
// returns when a cached unnamed statement is reused with other arguments.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "bind message supplies") && strings.Contains(msg, "requires")
}

func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unnamed prepared statement does not exist") ||
		(strings.Contains(msg, "prepared statement") && strings.Contains(msg, "26000"))
}

func isPoolerStatementError(err error) bool {
	return isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err)
}

// withStatementRetry runs fn again once when it failed with a pooler
// statement error. fn must be safe to repeat.
func withStatementRetry(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !isPoolerStatementError(err) || ctx.Err() != nil {
		return err
	}
	return fn(ctx)
}
