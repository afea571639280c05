package security

import (
	"context"
	"net/http"
	"strings"

	errs "NeuroQ/tools/errs"

	"github.com/gin-gonic/gin"
)

// context key
// 后续模块统一用这个 key 读取当前用户
const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

// Resolver maps a bearer credential to a user identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (string, bool)
}

// RoleResolver is implemented by resolvers whose credentials carry a role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, credential string) (userID, role string, ok bool)
}

type Options struct {
	HeaderToken string // 默认 "Authorization"，支持 "Bearer xxx"
	Resolver    Resolver
	Role        string // 非空时只放行该角色，其余已认证请求返回 403
}

func DefaultOptions(r Resolver) *Options {
	return &Options{
		HeaderToken: "Authorization",
		Resolver:    r,
	}
}

func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader(opts.HeaderToken))
		if token == "" || opts.Resolver == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthorized)
			return
		}
		var (
			userID, role string
			ok           bool
		)
		if rr, isRR := opts.Resolver.(RoleResolver); isRR {
			userID, role, ok = rr.ResolveRole(c.Request.Context(), token)
		} else {
			userID, ok = opts.Resolver.Resolve(c.Request.Context(), token)
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			return
		}
		if opts.Role != "" && role != opts.Role {
			c.AbortWithStatusJSON(http.StatusForbidden, errs.ErrForbidden)
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

func bearer(h string) string {
	h = strings.TrimSpace(h)
	if len(h) > len("bearer ") && strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	return h
}
