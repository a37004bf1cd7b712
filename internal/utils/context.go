package utils

import "context"

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserNameKey contextKey = "first_name"
	UserRoleKey contextKey = "role"
)

// SetUserContext stores the authenticated caller (called by middleware).
func SetUserContext(ctx context.Context, id, firstName, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserNameKey, firstName)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func GetUserNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(UserNameKey).(string)
	return name
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}
