package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// RequestHash fingerprints a calibration request so repeated requests can be
// matched in the calibration history.
type RequestHash Hash

func (h RequestHash) String() string { return Hash(h).String() }

// ComputeRequestHash hashes the family name, bounds, mass and both parameter
// maps. Free parameters are hashed in the order given because it determines the
// solver's starting vector; fixed parameters are hashed sorted by name.
func ComputeRequestHash(family string, lower, upper, mass float64, freeNames []string, freeValues []float64, fixed map[string]float64) RequestHash {
	var data strings.Builder
	fmt.Fprintf(&data, "%s|%v|%v|%v|", strings.ToLower(family), lower, upper, mass)
	for i, name := range freeNames {
		fmt.Fprintf(&data, "%s=%v;", name, freeValues[i])
	}
	data.WriteString("|")

	keys := make([]string, 0, len(fixed))
	for k := range fixed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&data, "%s=%v;", key, fixed[key])
	}

	return RequestHash(NewHash([]byte(data.String())))
}
