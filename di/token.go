package di

import (
	"fmt"

	"github.com/google/uuid"
)

// Token is a stable identifier used to look up a provider registration.
// The same token always resolves to the same registration within one
// container. Tokens are comparable and usable as map keys.
type Token struct {
	name string
}

// NewToken creates a named token. Two NewToken calls with the same name
// produce the same token.
func NewToken(name string) Token {
	return Token{name: name}
}

// UniqueToken creates a token guaranteed not to collide with any other,
// even one created from the same name. The name is kept as a debug prefix.
func UniqueToken(name string) Token {
	return Token{name: fmt.Sprintf("%s#%s", name, uuid.NewString())}
}

// Name returns the token's identifier string.
func (t Token) Name() string { return t.name }

// IsZero reports whether the token is the zero value.
func (t Token) IsZero() bool { return t.name == "" }

// String implements fmt.Stringer.
func (t Token) String() string { return t.name }
