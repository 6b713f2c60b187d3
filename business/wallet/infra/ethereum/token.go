package ethereum

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fd1az/walletd/internal/apperror"
)

// TokenClaims binds an access token to an address on a chain.
type TokenClaims struct {
	ChainID uint64 `json:"chain_id"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A zero ttl defaults to one hour.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue mints a token for address whose id is the sign-in nonce.
func (t *TokenIssuer) Issue(address common.Address, chainID uint64, nonce string) (string, error) {
	if len(t.secret) == 0 {
		return "", apperror.New(apperror.CodeTokenIssueFailed, apperror.WithContext("no signing secret"))
	}

	now := t.now()
	claims := TokenClaims{
		ChainID: chainID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.ToLower(address.Hex()),
			Issuer:    t.issuer,
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", apperror.New(apperror.CodeTokenIssueFailed, apperror.WithCause(err))
	}
	return signed, nil
}

// Verify parses a token minted by Issue.
func (t *TokenIssuer) Verify(token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, apperror.New(apperror.CodeSignatureInvalid, apperror.WithCause(err), apperror.WithContext("access token"))
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, apperror.New(apperror.CodeSignatureInvalid, apperror.WithContext("access token"))
	}
	return claims, nil
}
