package components

import (
	"fmt"
	"strings"
)

// Variant selects per-variant rule overrides.
type Variant uint8

const (
	VariantGeneric Variant = iota
	VariantBacteria
	VariantPhagocyte // tag only
	VariantPhotocyte // tag only
	numVariants
)

// NumVariants is the number of distinct variants.
const NumVariants = int(numVariants)

// VariantNames returns the display names for all variants.
// The order matches the Variant constants.
func VariantNames() []string {
	return []string{"generic", "bacteria", "phagocyte", "photocyte"}
}

// String returns the lower-case name of the variant.
func (v Variant) String() string {
	names := VariantNames()
	if int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}

// ParseVariant maps a name (case-insensitive) back to its Variant.
func ParseVariant(s string) (Variant, error) {
	for i, name := range VariantNames() {
		if strings.EqualFold(s, name) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	if int(v) >= len(VariantNames()) {
		return nil, fmt.Errorf("unknown variant %d", v)
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// DeathCause records why a cell left the population.
type DeathCause uint8

const (
	CauseExhausted    DeathCause = iota // energy reached zero during its own update
	CauseStarved                        // no meal within the starvation threshold
	CauseDepleted                       // environment energy floor
	CauseNitrogenLoss                   // environment nitrogen floor
	CauseSenescence                     // environment age limit
	CauseEaten
	CauseMerged
	CauseRemoved // external removal
	numCauses
)

// DeathCauseNames returns the snake_case names for all death causes.
func DeathCauseNames() []string {
	return []string{"exhausted", "starved", "depleted", "nitrogen_loss", "senescence", "eaten", "merged", "removed"}
}

// NumDeathCauses is the number of distinct causes.
const NumDeathCauses = int(numCauses)

// String returns the snake_case name of the cause.
func (c DeathCause) String() string {
	names := DeathCauseNames()
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}
