package components

import "testing"

func TestVariantRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
	}{
		{"generic", VariantGeneric},
		{"Bacteria", VariantBacteria},
		{"PHAGOCYTE", VariantPhagocyte},
		{"photocyte", VariantPhotocyte},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if err != nil {
				t.Fatalf("ParseVariant(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
			}
			text, err := got.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			var back Variant
			if err := back.UnmarshalText(text); err != nil || back != got {
				t.Errorf("text round trip gave %v (%v)", back, err)
			}
		})
	}

	if _, err := ParseVariant("amoeba"); err == nil {
		t.Error("unknown variant should fail to parse")
	}
	if Variant(9).String() != "unknown" {
		t.Error("out of range variant should print unknown")
	}
}

func TestDeathCauseNames(t *testing.T) {
	if len(DeathCauseNames()) != NumDeathCauses {
		t.Fatalf("%d names for %d causes", len(DeathCauseNames()), NumDeathCauses)
	}
	if CauseNitrogenLoss.String() != "nitrogen_loss" {
		t.Errorf("got %q", CauseNitrogenLoss.String())
	}
	if CauseRemoved.String() != "removed" {
		t.Errorf("got %q", CauseRemoved.String())
	}
}
