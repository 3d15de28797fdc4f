package validation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kjstillabower/evapotranspiration-service/internal/models"
)

// ErrMissingField is returned when a required input was not supplied.
var ErrMissingField = errors.New("missing required field")

// ErrInvalidRange is returned when an input is outside the domain the formulas accept.
var ErrInvalidRange = errors.New("value out of range")

// ErrUnknownField is returned when an input key is not a recognized field or alias.
var ErrUnknownField = errors.New("unknown field")

// ErrDuplicateField is returned when a field is supplied under both its name and an alias.
var ErrDuplicateField = errors.New("field supplied more than once")

// ErrNotANumber is returned when a raw value cannot be parsed as a real number.
var ErrNotANumber = errors.New("not a number")

// FieldError ties a validation failure to the offending field(s).
type FieldError struct {
	Fields []string
	Err    error
	Detail string
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Fields, ", "))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Rules selects which range checks apply beyond the arithmetic guards.
type Rules struct {
	// PhysicalRanges rejects values outside their physical meaning (albedo in (0,1], NDVI in [-1,1],
	// non-negative elevation, positive temperatures). Off by default so out-of-range records still
	// evaluate arithmetically.
	PhysicalRanges bool
}

type bound struct {
	field  string
	ok     func(float64) bool
	detail string
}

var physicalBounds = []bound{
	{models.FieldAlbedo, func(v float64) bool { return v > 0 && v <= 1 }, "must be in (0, 1]"},
	{models.FieldAirTemperature, func(v float64) bool { return v > 0 }, "must be > 0 K"},
	{models.FieldElevation, func(v float64) bool { return v >= 0 }, "must be >= 0"},
	{models.FieldInsolation, func(v float64) bool { return v >= 0 }, "must be >= 0"},
	{models.FieldOutgoingLongWaveRadiation, func(v float64) bool { return v >= 0 }, "must be >= 0"},
	{models.FieldNDVI, func(v float64) bool { return v >= -1 && v <= 1 }, "must be in [-1, 1]"},
	{models.FieldLandSurfaceTemperature, func(v float64) bool { return v > 0 }, "must be > 0 K"},
	{models.FieldPriestleyTaylorCoefficient, func(v float64) bool { return v > 0 }, "must be > 0"},
}

// ValidateInput checks that every field is present and within range and returns the immutable Record.
// Missing fields are reported together, in canonical order, before any range check runs.
func ValidateInput(in models.Input, rules Rules) (models.Record, error) {
	var missing []string
	for _, name := range models.FieldNames {
		if _, ok := in.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return models.Record{}, &FieldError{Fields: missing, Err: ErrMissingField}
	}

	for _, name := range models.FieldNames {
		v, _ := in.Get(name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Record{}, &FieldError{Fields: []string{name}, Err: ErrInvalidRange, Detail: "must be finite"}
		}
	}
	if v, _ := in.Get(models.FieldAlbedo); v == 0 {
		return models.Record{}, &FieldError{Fields: []string{models.FieldAlbedo}, Err: ErrInvalidRange, Detail: "must be non-zero"}
	}
	if rules.PhysicalRanges {
		for _, b := range physicalBounds {
			if v, _ := in.Get(b.field); !b.ok(v) {
				return models.Record{}, &FieldError{Fields: []string{b.field}, Err: ErrInvalidRange, Detail: b.detail}
			}
		}
	}

	get := func(name string) float64 {
		v, _ := in.Get(name)
		return v
	}
	return models.Record{
		Albedo:                     get(models.FieldAlbedo),
		AirTemperature:             get(models.FieldAirTemperature),
		Elevation:                  get(models.FieldElevation),
		Insolation:                 get(models.FieldInsolation),
		OutgoingLongWaveRadiation:  get(models.FieldOutgoingLongWaveRadiation),
		NDVI:                       get(models.FieldNDVI),
		LandSurfaceTemperature:     get(models.FieldLandSurfaceTemperature),
		PriestleyTaylorCoefficient: get(models.FieldPriestleyTaylorCoefficient),
	}, nil
}

// InputFromMap builds an Input from key/value pairs. Keys may be canonical names or legacy aliases.
// Unknown keys and fields given under more than one spelling are rejected, reported in sorted order.
func InputFromMap(values map[string]float64) (models.Input, error) {
	var in models.Input
	var unknown, duplicate []string
	for k, v := range values {
		name, ok := models.CanonicalField(k)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if _, seen := in.Get(name); seen {
			duplicate = append(duplicate, name)
			continue
		}
		in.Set(name, v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return models.Input{}, &FieldError{Fields: unknown, Err: ErrUnknownField}
	}
	if len(duplicate) > 0 {
		sort.Strings(duplicate)
		return models.Input{}, &FieldError{Fields: duplicate, Err: ErrDuplicateField}
	}
	return in, nil
}

// InputFromStrings is InputFromMap for textual values such as query parameters.
// Each value is trimmed and parsed as a 64-bit float.
func InputFromStrings(values map[string]string) (models.Input, error) {
	parsed := make(map[string]float64, len(values))
	for k, raw := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return models.Input{}, &FieldError{Fields: []string{k}, Err: ErrNotANumber, Detail: strconv.Quote(raw)}
		}
		parsed[k] = v
	}
	return InputFromMap(parsed)
}
