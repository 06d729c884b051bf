package accounts

import (
	"errors"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenExpiration is the token lifetime in hours
const DefaultTokenExpiration = 24

// DefaultSigningKeyID is used as the kid header when none is configured
const DefaultSigningKeyID = "primary"

// TokenService signs account tokens with HS256 and validates them
// against the current key and any previous keys still accepted.
type TokenService struct {
	keyID      string
	signingKey []byte
	keys       *keyfunc.JWKS
	expiration time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	now        func() time.Time
	logger     Logger
}

var _ TokenSigner = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) *TokenService {
	keyID := cfg.GetSigningKeyID()
	if keyID == "" {
		keyID = DefaultSigningKeyID
	}

	hours := cfg.GetTokenExpiration()
	if hours <= 0 {
		hours = DefaultTokenExpiration
	}

	signingKey := []byte(cfg.GetSigningKey())

	given := map[string]keyfunc.GivenKey{
		keyID: keyfunc.NewGivenCustom(signingKey, keyfunc.GivenKeyOptions{
			Algorithm: jwt.SigningMethodHS256.Alg(),
		}),
	}
	for kid, key := range cfg.GetPreviousSigningKeys() {
		if kid == keyID || key == "" {
			continue
		}
		given[kid] = keyfunc.NewGivenCustom([]byte(key), keyfunc.GivenKeyOptions{
			Algorithm: jwt.SigningMethodHS256.Alg(),
		})
	}

	var audience jwt.ClaimStrings
	if aud := cfg.GetAudience(); len(aud) > 0 {
		audience = make(jwt.ClaimStrings, len(aud))
		copy(audience, aud)
	}

	return &TokenService{
		keyID:      keyID,
		signingKey: signingKey,
		keys:       keyfunc.NewGiven(given),
		expiration: time.Duration(hours) * time.Hour,
		issuer:     cfg.GetIssuer(),
		audience:   audience,
		now:        time.Now,
		logger:     normalizeLogger(logger),
	}
}

// WithClock overrides the time source used for issuance and validation
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Expiration returns the lifetime of issued tokens
func (ts *TokenService) Expiration() time.Duration {
	return ts.expiration
}

// Sign stamps the timing, issuer and audience claims and signs them
func (ts *TokenService) Sign(claims *AccountClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	if len(ts.signingKey) == 0 {
		return "", goerrors.New("signing key is not configured", goerrors.CategoryInternal).
			WithTextCode(TextCodeTransientFailure)
	}

	now := ts.now()
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.expiration))
	if claims.Issuer == "" {
		claims.Issuer = ts.issuer
	}
	if len(claims.Audience) == 0 {
		claims.Audience = ts.audience
	}
	if claims.RegisteredClaims.ID == "" {
		claims.RegisteredClaims.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = ts.keyID

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses and validates a token string, returning its claims
func (ts *TokenService) Validate(tokenString string) (*AccountClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	claims := &AccountClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, ts.keys.Keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token validation failed", "error", err)
		return nil, ErrTokenMalformed
	}

	if !token.Valid || claims.UserID() == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
