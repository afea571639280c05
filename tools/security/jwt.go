package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options 控制签名与TTL等参数。
type Options struct {
	Secret []byte        // HMAC 密钥（生产用ENV/KMS）
	Alg    string        // HS256/HS384/HS512（默认 HS256）
	TTL    time.Duration // 令牌有效期（默认 30m）
}

// RoleOperator marks service credentials allowed to push frames to users.
const RoleOperator = "operator"

// Claims 在标准声明上加一个 role，终端用户为空
type Claims struct {
	Role string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 30 * time.Minute}
}

// Generate signs a token whose subject is the user identity. Token issuance
// belongs to the account service; this exists for local tooling and tests.
func Generate(opts Options, userID string) (token string, expireAt time.Time, err error) {
	return GenerateWithRole(opts, userID, "")
}

func GenerateWithRole(opts Options, userID, role string) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
		},
	}
	signed, err := jwtlib.NewWithClaims(method, claims).SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates token, returning its subject.
func Verify(opts Options, token string) (string, error) {
	claims, err := VerifyClaims(opts, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyClaims validates token and returns its claims; the subject is
// guaranteed non-empty.
func VerifyClaims(opts Options, token string) (*Claims, error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		// 仅允许 HMAC 家族
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	}, jwtlib.WithValidMethods([]string{method.Alg()}), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Verifier resolves websocket credentials into user identities.
type Verifier struct {
	opts Options
}

func NewVerifier(opts Options) *Verifier {
	return &Verifier{opts: opts}
}

// Resolve returns the identity behind credential, or false when the
// credential is invalid, expired or carries no subject.
func (v *Verifier) Resolve(ctx context.Context, credential string) (string, bool) {
	sub, _, ok := v.ResolveRole(ctx, credential)
	return sub, ok
}

// ResolveRole is Resolve plus the token's role claim.
func (v *Verifier) ResolveRole(_ context.Context, credential string) (string, string, bool) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", "", false
	}
	claims, err := VerifyClaims(v.opts, credential)
	if err != nil {
		return "", "", false
	}
	return claims.Subject, claims.Role, true
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
