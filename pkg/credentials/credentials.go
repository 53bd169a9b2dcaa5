// Package credentials provides the API connector (API key and token scopes)
// that WB actions authenticate with, and the sources it can be loaded from.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// ErrNoCredentials is returned when a source holds no API key.
var ErrNoCredentials = errors.New("no WB API credentials")

// Connector carries the API key and the scopes granted to it.
type Connector struct {
	APIKey string
	Scopes []string
}

// AuthHeaders returns the header set attached to every request.
func (c Connector) AuthHeaders() http.Header {
	h := http.Header{}
	h.Set("Authorization", c.APIKey)
	h.Set("Accept", "application/json")
	return h
}

// HasScope reports whether scope was granted. A connector without declared
// scopes is treated as unrestricted.
func (c Connector) HasScope(scope string) bool {
	if len(c.Scopes) == 0 || scope == "" {
		return true
	}
	for _, s := range c.Scopes {
		if strings.EqualFold(s, scope) {
			return true
		}
	}
	return false
}

// String renders the connector without revealing the key.
func (c Connector) String() string {
	return fmt.Sprintf("WB connector (key %s, scopes [%s])", mask(c.APIKey), strings.Join(c.Scopes, ","))
}

func mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Source loads a Connector.
type Source interface {
	Connector(ctx context.Context) (Connector, error)
}

// Static is a Source returning a fixed connector.
type Static Connector

// Connector implements Source.
func (s Static) Connector(ctx context.Context) (Connector, error) {
	if s.APIKey == "" {
		return Connector{}, ErrNoCredentials
	}
	return Connector(s), nil
}

// Env is a Source reading the key from <Prefix>_API_KEY and comma-separated
// scopes from <Prefix>_SCOPES.
type Env struct {
	Prefix string
}

// Connector implements Source.
func (e Env) Connector(ctx context.Context) (Connector, error) {
	prefix := e.Prefix
	if prefix == "" {
		prefix = "WB"
	}

	key := os.Getenv(prefix + "_API_KEY")
	if key == "" {
		return Connector{}, fmt.Errorf("%w: %s_API_KEY is not set", ErrNoCredentials, prefix)
	}

	return Connector{
		APIKey: key,
		Scopes: ParseScopes(os.Getenv(prefix + "_SCOPES")),
	}, nil
}

// ParseScopes splits a comma-separated scope list, dropping blanks.
func ParseScopes(raw string) []string {
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
