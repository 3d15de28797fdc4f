package models

import "testing"

func TestCanonicalField(t *testing.T) {
	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"albedo", FieldAlbedo, true},
		{"air_temperature_data", FieldAirTemperature, true},
		{"out_going_long_wave_radiation", FieldOutgoingLongWaveRadiation, true},
		{"NDVI", FieldNDVI, true},
		{"Priestley_Taylor_Coefficient", FieldPriestleyTaylorCoefficient, true},
		{"Albedo", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := CanonicalField(tc.key)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("CanonicalField(%q) = %q, %v, want %q, %v", tc.key, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestInput_SetGet(t *testing.T) {
	var in Input
	if _, ok := in.Get(FieldAlbedo); ok {
		t.Fatal("Get on empty Input reported a value")
	}
	if !in.Set("NDVI", 0.4) {
		t.Fatal("Set(NDVI) = false, want true")
	}
	if v, ok := in.Get(FieldNDVI); !ok || v != 0.4 {
		t.Errorf("Get(ndvi) = %v, %v, want 0.4, true", v, ok)
	}
	if in.Set("humidity", 1) {
		t.Error("Set(humidity) = true, want false")
	}
	if _, ok := in.Get("humidity"); ok {
		t.Error("Get(humidity) reported a value")
	}
}

func TestInputFromRecord_RoundTrip(t *testing.T) {
	r := DemoRecord()
	in := InputFromRecord(r)
	for i, name := range FieldNames {
		v, ok := in.Get(name)
		if !ok || v != r.Values()[i] {
			t.Errorf("Get(%s) = %v, %v, want %v", name, v, ok, r.Values()[i])
		}
	}
}

func TestInput_Merge(t *testing.T) {
	base := InputFromRecord(DemoRecord())
	var override Input
	override.Set(FieldAlbedo, 0.2)
	merged := base.Merge(override)
	if v, _ := merged.Get(FieldAlbedo); v != 0.2 {
		t.Errorf("merged albedo = %v, want 0.2", v)
	}
	if v, _ := merged.Get(FieldElevation); v != 10 {
		t.Errorf("merged elevation = %v, want 10", v)
	}
	if v, _ := base.Get(FieldAlbedo); v != 10 {
		t.Errorf("base albedo changed to %v", v)
	}
}
