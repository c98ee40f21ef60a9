package genome

import "math/rand"

// Trait identifies one field of the trait vector.
type Trait uint8

const (
	TraitSize Trait = iota
	TraitSpeed
	TraitEnergyEfficiency
	TraitDivisionThreshold
	TraitColor
	TraitHasTail
	TraitCanConsume
	TraitConsumptionSizeRatio
	TraitNitrogenReserve
	TraitAdhesin
	TraitRadiationSensitivity
	numTraits
)

var traitNames = [numTraits]string{
	"size",
	"speed",
	"energy_efficiency",
	"division_threshold",
	"color",
	"has_tail",
	"can_consume",
	"consumption_size_ratio",
	"nitrogen_reserve",
	"adhesin",
	"radiation_sensitivity",
}

// String returns the snake_case name of the trait.
func (t Trait) String() string {
	if t < numTraits {
		return traitNames[t]
	}
	return "unknown"
}

// Mutation perturbation bounds.
const (
	scaleLo     = 0.8
	scaleHi     = 1.2
	colorJitter = 0.1
)

// mutationRule perturbs one trait in place.
type mutationRule struct {
	trait Trait
	apply func(g *Genome, rng *rand.Rand)
}

// mutationRules is evaluated in order; each rule gets its own probability draw.
var mutationRules = [...]mutationRule{
	{TraitSize, scale(func(t *Traits) *float64 { return &t.Size })},
	{TraitSpeed, scale(func(t *Traits) *float64 { return &t.Speed })},
	{TraitEnergyEfficiency, scale(func(t *Traits) *float64 { return &t.EnergyEfficiency })},
	{TraitDivisionThreshold, scale(func(t *Traits) *float64 { return &t.DivisionThreshold })},
	{TraitColor, jitterColor},
	{TraitHasTail, flip(func(g *Genome) *bool { return &g.HasTail })},
	{TraitCanConsume, func(g *Genome, rng *rand.Rand) {
		if g.NeverConsume {
			return
		}
		g.CanConsume = !g.CanConsume
	}},
	{TraitConsumptionSizeRatio, func(g *Genome, rng *rand.Rand) {
		// The ratio is the only scalar with a floor: below 1 a cell could eat its equals.
		g.ConsumptionSizeRatio = max(1, g.ConsumptionSizeRatio*uniform(rng, scaleLo, scaleHi))
	}},
	{TraitNitrogenReserve, scale(func(t *Traits) *float64 { return &t.NitrogenReserve })},
	{TraitAdhesin, flip(func(g *Genome) *bool { return &g.Adhesin })},
	{TraitRadiationSensitivity, scale(func(t *Traits) *float64 { return &t.RadiationSensitivity })},
}

// Mutate perturbs each trait independently with probability rate.
// Booleans flip, color channels receive bounded noise and other scalars are
// multiplied by a factor in [0.8, 1.2].
// Scalars are not re-clamped to their creation ranges, with one exception:
// ConsumptionSizeRatio is floored at 1.
func (g *Genome) Mutate(rate float64, rng *rand.Rand) {
	for _, r := range mutationRules {
		if rng.Float64() < rate {
			r.apply(g, rng)
		}
	}
}

func scale(field func(*Traits) *float64) func(*Genome, *rand.Rand) {
	return func(g *Genome, rng *rand.Rand) {
		v := field(&g.Traits)
		*v *= uniform(rng, scaleLo, scaleHi)
	}
}

func flip(field func(*Genome) *bool) func(*Genome, *rand.Rand) {
	return func(g *Genome, _ *rand.Rand) {
		v := field(g)
		*v = !*v
	}
}

func jitterColor(g *Genome, rng *rand.Rand) {
	for _, c := range []*float64{&g.Color.R, &g.Color.G, &g.Color.B} {
		*c = min(1, max(0, *c+uniform(rng, -colorJitter, colorJitter)))
	}
}
