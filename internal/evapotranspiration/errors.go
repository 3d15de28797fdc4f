package evapotranspiration

import (
	"errors"
	"fmt"
)

// ErrDomain is returned when a formula stage produces a value outside the real numbers (NaN or ±Inf).
var ErrDomain = errors.New("numeric domain error")

// ErrDivisionByZero is returned when a formula denominator evaluates to zero. It matches ErrDomain.
var ErrDivisionByZero = fmt.Errorf("division by zero: %w", ErrDomain)

// Stage names one formula in the evaluation chain.
type Stage string

const (
	StageNetRadiation                  Stage = "net_radiation"
	StageSoilHeatFlux                  Stage = "soil_heat_flux"
	StageSlopeOfSaturatedVaporPressure Stage = "slope_of_saturated_vapor_pressure"
	StagePsychrometricConstant         Stage = "psychrometric_constant"
	StageEvapotranspiration            Stage = "evapotranspiration"
)

// StageError reports which formula stage failed. Unwraps to ErrDivisionByZero or ErrDomain.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage if err carries a StageError.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
