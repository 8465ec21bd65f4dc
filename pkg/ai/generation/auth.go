package generation

import (
	"fmt"
	"net/http"
)

type AuthType string

const (
	AuthBearer AuthType = "bearer"  // Logged-in user JWT
	AuthAPIKey AuthType = "api-key" // Guest key
)

const HeaderAPIKey = "X-API-Key"

// AuthKey is a credential already acquired by the caller
type AuthKey struct {
	Type  AuthType
	Value string
}

// Header builds the pre-built header set the client sends upstream
func (a AuthKey) Header() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	switch a.Type {
	case AuthBearer:
		h.Set("Authorization", fmt.Sprintf("Bearer %s", a.Value))
	case AuthAPIKey:
		h.Set(HeaderAPIKey, a.Value)
	}
	return h
}

// IsZero reports whether no credential was supplied
func (a AuthKey) IsZero() bool {
	return a.Value == ""
}
