// Package identity generates the anonymous three-word identifiers handed to
// connections, e.g. "votes-purer-tills".
package identity

import (
	"crypto/rand"
	"errors"
	"strings"

	"github.com/ZentaChain/chatrelay/pkg/registry"
)

// Separator joins the words of an identifier
const Separator = "-"

// WordCount is the number of words in an identifier
const WordCount = 3

var wordSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Words))
	for _, w := range Words {
		m[w] = struct{}{}
	}
	return m
}()

// Registrar inserts an endpoint under an identifier, failing with
// registry.ErrIdentifierTaken when the identifier is already live
type Registrar interface {
	Register(id string, ep *registry.Endpoint) error
}

// Generate draws three independent uniform words and joins them
func Generate() string {
	var idx [WordCount]byte
	// crypto/rand.Read never returns an error
	rand.Read(idx[:])

	words := make([]string, WordCount)
	for i, b := range idx {
		words[i] = Words[b]
	}
	return strings.Join(words, Separator)
}

// IsIdentifier reports whether s has the shape of a generated identifier
func IsIdentifier(s string) bool {
	parts := strings.Split(s, Separator)
	if len(parts) != WordCount {
		return false
	}
	for _, p := range parts {
		if _, ok := wordSet[p]; !ok {
			return false
		}
	}
	return true
}

// Allocate registers ep under a fresh identifier and returns it.
//
// Each attempt is a single atomic Register call, so two connections can never
// end up with the same identifier. There is no retry limit: with 2^24
// identifiers a collision loop only spins under a registry that is close to
// full.
func Allocate(reg Registrar, ep *registry.Endpoint) (string, error) {
	return AllocateWith(reg, ep, Generate)
}

// AllocateWith is Allocate with a custom generator
func AllocateWith(reg Registrar, ep *registry.Endpoint, generate func() string) (string, error) {
	for {
		id := generate()
		err := reg.Register(id, ep)
		if errors.Is(err, registry.ErrIdentifierTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
}
