package models

// Input holds caller-supplied values before validation. A nil field was not supplied.
type Input struct {
	Albedo                     *float64
	AirTemperature             *float64
	Elevation                  *float64
	Insolation                 *float64
	OutgoingLongWaveRadiation  *float64
	NDVI                       *float64
	LandSurfaceTemperature     *float64
	PriestleyTaylorCoefficient *float64
}

// InputFromRecord returns an Input with every field set from r.
func InputFromRecord(r Record) Input {
	var in Input
	for i, v := range r.Values() {
		in.Set(FieldNames[i], v)
	}
	return in
}

// field returns the slot for a canonical field name, or nil if the name is unknown.
func (in *Input) field(name string) **float64 {
	switch name {
	case FieldAlbedo:
		return &in.Albedo
	case FieldAirTemperature:
		return &in.AirTemperature
	case FieldElevation:
		return &in.Elevation
	case FieldInsolation:
		return &in.Insolation
	case FieldOutgoingLongWaveRadiation:
		return &in.OutgoingLongWaveRadiation
	case FieldNDVI:
		return &in.NDVI
	case FieldLandSurfaceTemperature:
		return &in.LandSurfaceTemperature
	case FieldPriestleyTaylorCoefficient:
		return &in.PriestleyTaylorCoefficient
	}
	return nil
}

// Set stores v under key, which may be a canonical name or a legacy alias.
// Returns false if the key is not recognized.
func (in *Input) Set(key string, v float64) bool {
	name, ok := CanonicalField(key)
	if !ok {
		return false
	}
	*in.field(name) = &v
	return true
}

// Get returns the value for a canonical field name and whether it was supplied.
func (in Input) Get(name string) (float64, bool) {
	slot := in.field(name)
	if slot == nil || *slot == nil {
		return 0, false
	}
	return **slot, true
}

// Merge returns a copy of in where every field supplied in override replaces the original.
func (in Input) Merge(override Input) Input {
	out := in
	for _, name := range FieldNames {
		if v, ok := override.Get(name); ok {
			out.Set(name, v)
		}
	}
	return out
}
