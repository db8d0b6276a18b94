package handlers

import (
	"strings"

	xhttp "github.com/nimasrn/donation-gateway/pkg/http"
)

const userIDKey = "auth_user_id"

type TokenVerifier interface {
	VerifyToken(token string) (int64, error)
}

// RequireAuth wraps a handler and rejects requests without a valid
// Bearer token. The authenticated user id is stored on the request ctx.
func RequireAuth(verifier TokenVerifier, next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		header := string(ctx.Request.Header.Peek("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(ctx, 401, "missing bearer token")
			return
		}
		userID, err := verifier.VerifyToken(token)
		if err != nil {
			writeError(ctx, 401, "invalid or expired token")
			return
		}
		ctx.SetUserValue(userIDKey, userID)
		next(ctx)
	}
}

func authUserID(ctx *xhttp.RequestCtx) int64 {
	if v, ok := ctx.UserValue(userIDKey).(int64); ok {
		return v
	}
	return 0
}
