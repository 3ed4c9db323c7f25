package v1

import (
	"context"
)

type UserKey struct{}

// UserInfo carries the caller identity resolved by the transport layer.
type UserInfo struct {
	user string
}

func SetupUserInfo(ctx context.Context) UserInfo {
	user, _ := ctx.Value(UserKey{}).(string)
	return UserInfo{user: user}
}

func (u UserInfo) GetUserID() string {
	return u.user
}
