package genome

import (
	"fmt"
	"math"
)

// DNA is the 96-bit packed form of a trait vector.
// Lo carries bits 0-63 and Hi carries bits 64-95.
type DNA struct {
	Hi uint32
	Lo uint64
}

// DNABits is the number of meaningful bits in a DNA value.
const DNABits = 96

// String renders the DNA as 24 uppercase hex digits.
func (d DNA) String() string {
	return fmt.Sprintf("%08X%016X", d.Hi, d.Lo)
}

// Bit returns bit i (0 = least significant).
func (d DNA) Bit(i int) bool {
	switch {
	case i < 0 || i >= DNABits:
		return false
	case i < 64:
		return d.Lo>>uint(i)&1 == 1
	default:
		return d.Hi>>uint(i-64)&1 == 1
	}
}

func (d *DNA) setByte(offset uint, b uint8) {
	if offset < 64 {
		d.Lo |= uint64(b) << offset
	} else {
		d.Hi |= uint32(b) << (offset - 64)
	}
}

func (d DNA) byteAt(offset uint) uint8 {
	if offset < 64 {
		return uint8(d.Lo >> offset)
	}
	return uint8(d.Hi >> (offset - 64))
}

func (d *DNA) setBit(offset uint, v bool) {
	if v {
		d.setByte(offset, 1)
	}
}

// scalarField places one decimal-precision scalar in a byte.
type scalarField struct {
	offset uint
	bias   float64 // Subtracted before quantizing so the generation range fits a byte
	field  func(*Traits) *float64
}

// Quantization steps.
const (
	ScalarStep = 0.1
	ColorStep  = 1.0 / 255
)

var scalarFields = [...]scalarField{
	{0, 15, func(t *Traits) *float64 { return &t.DivisionThreshold }},
	{8, 0, func(t *Traits) *float64 { return &t.EnergyEfficiency }},
	{16, 0, func(t *Traits) *float64 { return &t.Speed }},
	{24, 0, func(t *Traits) *float64 { return &t.Size }},
	{32, 0, func(t *Traits) *float64 { return &t.ConsumptionSizeRatio }},
	{72, 0, func(t *Traits) *float64 { return &t.NitrogenReserve }},
	{88, 0, func(t *Traits) *float64 { return &t.RadiationSensitivity }},
}

type colorField struct {
	offset uint
	field  func(*Color) *float64
}

var colorFields = [...]colorField{
	{40, func(c *Color) *float64 { return &c.R }},
	{48, func(c *Color) *float64 { return &c.G }},
	{56, func(c *Color) *float64 { return &c.B }},
}

type boolField struct {
	offset uint
	field  func(*Traits) *bool
}

var boolFields = [...]boolField{
	{64, func(t *Traits) *bool { return &t.HasTail }},
	{65, func(t *Traits) *bool { return &t.CanConsume }},
	{80, func(t *Traits) *bool { return &t.Adhesin }},
}

// Encode packs a trait vector. Values outside a field's byte range saturate.
func Encode(t Traits) DNA {
	var d DNA
	for _, f := range scalarFields {
		d.setByte(f.offset, quantize((*f.field(&t)-f.bias)/ScalarStep))
	}
	for _, f := range colorFields {
		d.setByte(f.offset, quantize(*f.field(&t.Color)/ColorStep))
	}
	for _, f := range boolFields {
		d.setBit(f.offset, *f.field(&t))
	}
	return d
}

// Decode unpacks DNA into an approximation of the encoded traits.
func Decode(d DNA) Traits {
	var t Traits
	for _, f := range scalarFields {
		*f.field(&t) = float64(d.byteAt(f.offset))*ScalarStep + f.bias
	}
	for _, f := range colorFields {
		*f.field(&t.Color) = float64(d.byteAt(f.offset)) * ColorStep
	}
	for _, f := range boolFields {
		*f.field(&t) = d.Bit(int(f.offset))
	}
	return t
}

func quantize(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return uint8(min(255, math.Round(v)))
}
