package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// GoogleJWKSURL is the published key set for Google-issued ID tokens.
const GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// NewCachedKeyfunc returns a jwt.Keyfunc backed by an auto-refreshing JWKS
// cache. The cache refreshes in the background for as long as ctx lives;
// token verification itself never blocks on a cold fetch after startup.
func NewCachedKeyfunc(ctx context.Context, jwksURL string) (jwt.Keyfunc, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register jwks url: %w", err)
	}
	// Prime the cache so a bad URL fails at startup, not on first request.
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing kid header")
		}
		set, err := cache.Get(ctx, jwksURL)
		if err != nil {
			return nil, fmt.Errorf("jwks lookup: %w", err)
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("no key with id %q in set", kid)
		}
		var raw any
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("materialize key %q: %w", kid, err)
		}
		return raw, nil
	}, nil
}
