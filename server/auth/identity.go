package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eclipse/server/domain"
)

var (
	// ErrMissingCredential はリクエストに資格情報が付いていない場合のエラーです。
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrInvalidToken は資格情報を解決できない場合のエラーです。
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Resolver は接続の資格情報をプロフィールに解決する境界です。
// アカウント管理は外部コラボレータの責務で、コアは解決結果を読むだけです。
type Resolver interface {
	Resolve(ctx context.Context, credential string) (domain.Profile, error)
}

// Claims はアクセストークンのペイロードです。subがユーザーIDになります。
type Claims struct {
	Username  string `json:"username"`
	FighterID string `json:"fighter_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver はHMAC署名付きJWTを検証するResolverです。
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(ctx context.Context, credential string) (domain.Profile, error) {
	if credential == "" {
		return domain.Profile{}, ErrMissingCredential
	}
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return domain.Profile{}, ErrInvalidToken
	}
	return domain.Profile{
		ID:                claims.Subject,
		Username:          claims.Username,
		SelectedFighterID: claims.FighterID,
	}, nil
}

// Issue は指定プロフィールのトークンを発行します。開発ツールとテスト用です。
func (r *JWTResolver) Issue(profile domain.Profile, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  profile.Username,
		FighterID: profile.SelectedFighterID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// CredentialFromRequest はAuthorizationヘッダーまたはtokenクエリから資格情報を取り出します。
// websocketのブラウザクライアントはヘッダーを付けられないため、クエリも受け付けます。
func CredentialFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

var _ Resolver = (*JWTResolver)(nil)
