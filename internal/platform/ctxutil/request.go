package ctxutil

import (
	"context"

	"github.com/yungbote/classroom-backend/internal/domain/user"
)

type requestDataKey struct{}

// RequestData is what the auth middleware learned about the caller.
type RequestData struct {
	TokenString string
	Principal   user.Principal
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(ctx context.Context) (user.Principal, bool) {
	rd := GetRequestData(ctx)
	if rd == nil {
		return user.Principal{}, false
	}
	return rd.Principal, true
}
