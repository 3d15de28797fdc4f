package models

// Recognized input keys, in canonical order.
const (
	FieldAlbedo                     = "albedo"
	FieldAirTemperature             = "air_temperature"
	FieldElevation                  = "elevation"
	FieldInsolation                 = "insolation"
	FieldOutgoingLongWaveRadiation  = "outgoing_long_wave_radiation"
	FieldNDVI                       = "ndvi"
	FieldLandSurfaceTemperature     = "land_surface_temperature"
	FieldPriestleyTaylorCoefficient = "priestley_taylor_coefficient"
)

// FieldNames lists every recognized key in canonical order. Error messages and cache keys follow this order.
var FieldNames = []string{
	FieldAlbedo,
	FieldAirTemperature,
	FieldElevation,
	FieldInsolation,
	FieldOutgoingLongWaveRadiation,
	FieldNDVI,
	FieldLandSurfaceTemperature,
	FieldPriestleyTaylorCoefficient,
}

// fieldAliases maps legacy key spellings to their canonical names.
var fieldAliases = map[string]string{
	"air_temperature_data":          FieldAirTemperature,
	"out_going_long_wave_radiation": FieldOutgoingLongWaveRadiation,
	"NDVI":                          FieldNDVI,
	"Priestley_Taylor_Coefficient":  FieldPriestleyTaylorCoefficient,
}

// CanonicalField resolves a key or one of its legacy aliases to the canonical field name.
func CanonicalField(key string) (string, bool) {
	for _, name := range FieldNames {
		if key == name {
			return name, true
		}
	}
	name, ok := fieldAliases[key]
	return name, ok
}

// Record is one complete set of evaluation inputs. Passed by value; never mutated after construction.
type Record struct {
	Albedo                     float64 `json:"albedo" yaml:"albedo"`
	AirTemperature             float64 `json:"air_temperature" yaml:"air_temperature"`
	Elevation                  float64 `json:"elevation" yaml:"elevation"`
	Insolation                 float64 `json:"insolation" yaml:"insolation"`
	OutgoingLongWaveRadiation  float64 `json:"outgoing_long_wave_radiation" yaml:"outgoing_long_wave_radiation"`
	NDVI                       float64 `json:"ndvi" yaml:"ndvi"`
	LandSurfaceTemperature     float64 `json:"land_surface_temperature" yaml:"land_surface_temperature"`
	PriestleyTaylorCoefficient float64 `json:"priestley_taylor_coefficient" yaml:"priestley_taylor_coefficient"`
}

// Values returns the record's fields in FieldNames order.
func (r Record) Values() []float64 {
	return []float64{
		r.Albedo,
		r.AirTemperature,
		r.Elevation,
		r.Insolation,
		r.OutgoingLongWaveRadiation,
		r.NDVI,
		r.LandSurfaceTemperature,
		r.PriestleyTaylorCoefficient,
	}
}

// DemoRecord returns the built-in example record evaluated by the CLI when no flags are given.
// Albedo 10 is outside the physical [0,1] range; the formulas still evaluate it arithmetically.
func DemoRecord() Record {
	return Record{
		Albedo:                     10,
		AirTemperature:             27,
		Elevation:                  10,
		Insolation:                 600,
		OutgoingLongWaveRadiation:  100,
		NDVI:                       0.7,
		LandSurfaceTemperature:     45,
		PriestleyTaylorCoefficient: 1.26,
	}
}
