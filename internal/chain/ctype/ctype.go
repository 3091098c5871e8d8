// Package ctype defines the claim schemas this service attests and the
// hashes that identify them.
package ctype

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"golang.org/x/crypto/blake2b"

	"socialkyc/internal/chain"
	dErrors "socialkyc/pkg/domain-errors"
)

const draftSchema = "http://kilt-protocol.org/draft-01/ctype#"

// Property types.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Property declares the JSON type of one claim property.
type Property struct {
	Type string `json:"type"`
}

// Schema is the hashed part of a cType. Field order and map key order are
// fixed by encoding/json, which makes the encoding canonical.
type Schema struct {
	Schema               string              `json:"$schema"`
	AdditionalProperties bool                `json:"additionalProperties"`
	Properties           map[string]Property `json:"properties"`
	Title                string              `json:"title"`
	Type                 string              `json:"type"`
}

// CType is a schema and its hash.
type CType struct {
	Hash   string
	Schema Schema
}

// New builds a closed object schema; every property is required.
func New(title string, properties map[string]Property) CType {
	s := Schema{
		Schema:     draftSchema,
		Properties: properties,
		Title:      title,
		Type:       "object",
	}
	return CType{Hash: HashSchema(s), Schema: s}
}

// HashSchema returns the 0x-prefixed blake2b-256 hash of the schema JSON.
func HashSchema(s Schema) string {
	raw, err := json.Marshal(s)
	if err != nil {
		// Schema holds only strings, bools and maps of those.
		panic(fmt.Sprintf("ctype: marshal schema: %v", err))
	}
	return hashBytes(raw)
}

// PropertyNames returns the declared property names in sorted order.
func (c CType) PropertyNames() []string {
	names := make([]string, 0, len(c.Schema.Properties))
	for name := range c.Schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateContents checks that contents holds exactly the declared properties
// with their declared types.
func (c CType) ValidateContents(contents map[string]any) error {
	for name := range contents {
		if _, ok := c.Schema.Properties[name]; !ok {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("property %q is not part of cType %s", name, c.Schema.Title))
		}
	}
	for _, name := range c.PropertyNames() {
		v, ok := contents[name]
		if !ok {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("property %q is missing", name))
		}
		if !matchesType(c.Schema.Properties[name].Type, v) {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("property %q must be of type %s", name, c.Schema.Properties[name].Type))
		}
	}
	return nil
}

func matchesType(want string, v any) bool {
	switch want {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
	case TypeInteger:
		switch n := v.(type) {
		case int, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
	}
	return false
}

// HashClaim returns the root hash a credential over claim must carry.
func HashClaim(claim chain.Claim) (string, error) {
	raw, err := json.Marshal(claim)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "claim is not serializable")
	}
	return hashBytes(raw), nil
}

func hashBytes(b []byte) string {
	sum := blake2b.Sum256(b)
	return "0x" + hex.EncodeToString(sum[:])
}

// Registry indexes known cTypes by hash.
type Registry struct {
	byHash map[string]CType
	order  []string
}

// NewRegistry indexes the given cTypes.
func NewRegistry(ctypes ...CType) *Registry {
	r := &Registry{byHash: make(map[string]CType, len(ctypes))}
	for _, c := range ctypes {
		if _, dup := r.byHash[c.Hash]; dup {
			continue
		}
		r.byHash[c.Hash] = c
		r.order = append(r.order, c.Hash)
	}
	return r
}

// Lookup returns the cType with the given hash.
func (r *Registry) Lookup(hash string) (CType, bool) {
	c, ok := r.byHash[hash]
	return c, ok
}

// All returns the registered cTypes in registration order.
func (r *Registry) All() []CType {
	out := make([]CType, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.byHash[h])
	}
	return out
}

// Hashes returns the registered hashes in registration order.
func (r *Registry) Hashes() []string {
	return slices.Clone(r.order)
}
