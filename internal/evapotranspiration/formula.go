// Package evapotranspiration evaluates the modified Priestley-Taylor energy balance:
// net radiation, soil heat flux, the slope of the saturation vapor pressure curve (delta),
// the psychrometric constant (gamma) and their combination into evapotranspiration.
// All functions are pure; callers may evaluate independent records concurrently.
package evapotranspiration

import (
	"math"

	"github.com/kjstillabower/evapotranspiration-service/internal/models"
)

const (
	// StefanBoltzmann is the Stefan-Boltzmann constant in W m⁻² K⁻⁴.
	StefanBoltzmann = 5.67e-8
	// GreyBodyEmissivity is the air emissivity used for incoming long-wave radiation.
	GreyBodyEmissivity = 1.0
)

// NetShortWaveRadiation returns the absorbed share of insolation.
func NetShortWaveRadiation(insolation, albedo float64) float64 {
	return insolation * (1 - albedo)
}

// IncomingLongWaveRadiation returns σ·ε·T⁴.
func IncomingLongWaveRadiation(airTemperature float64) float64 {
	return StefanBoltzmann * GreyBodyEmissivity * math.Pow(airTemperature, 4)
}

// NetRadiation returns net short-wave plus the long-wave balance.
func NetRadiation(insolation, albedo, airTemperature, outgoingLongWave float64) float64 {
	ilr := IncomingLongWaveRadiation(airTemperature)
	nswr := NetShortWaveRadiation(insolation, albedo)
	return nswr + (ilr - outgoingLongWave)
}

// SoilHeatFlux returns the share of net radiation conducted into the soil
// (Bastiaanssen-style G/Rn ratio scaled by land-surface temperature).
// Fails with ErrDivisionByZero when albedo is zero.
func SoilHeatFlux(netRadiation, landSurfaceTemperature, albedo, ndvi float64) (float64, error) {
	if albedo == 0 {
		return 0, &StageError{Stage: StageSoilHeatFlux, Err: ErrDivisionByZero}
	}
	g := netRadiation * ((landSurfaceTemperature / albedo) * ((0.0038 * albedo) + (0.0074 * math.Pow(albedo, 2))) * (1 - 0.98*math.Pow(ndvi, 4)))
	return finite(StageSoilHeatFlux, g)
}

// SlopeOfSaturatedVaporPressure returns delta for the given air temperature.
func SlopeOfSaturatedVaporPressure(airTemperature float64) (float64, error) {
	if 237.3+airTemperature == 0 {
		return 0, &StageError{Stage: StageSlopeOfSaturatedVaporPressure, Err: ErrDivisionByZero}
	}
	delta := (2503.0580 / (237.3000 + airTemperature)) * math.Exp((17.2700*airTemperature)/(airTemperature+237.3000))
	return finite(StageSlopeOfSaturatedVaporPressure, delta)
}

// PsychrometricConstant returns gamma for the given elevation and air temperature.
// The denominator vanishes at airTemperature = 2501/2.37.
func PsychrometricConstant(elevation, airTemperature float64) (float64, error) {
	denominator := 622 * ((2501) - (2.37 * airTemperature))
	if denominator == 0 {
		return 0, &StageError{Stage: StagePsychrometricConstant, Err: ErrDivisionByZero}
	}
	gamma := (1005 * ((1013.25) - (0.11986 * elevation) + (0.000005356 * math.Pow(elevation, 2)))) / denominator
	return finite(StagePsychrometricConstant, gamma)
}

// EvapoTranspiration evaluates the full chain for r and returns the evapotranspiration value.
func EvapoTranspiration(r models.Record) (float64, error) {
	res, err := Evaluate(r)
	if err != nil {
		return 0, err
	}
	return res.Evapotranspiration, nil
}

// Evaluate runs the chain for r and returns the value with every intermediate term.
// The first failing stage aborts evaluation; no partial result is returned.
func Evaluate(r models.Record) (models.Result, error) {
	nswr := NetShortWaveRadiation(r.Insolation, r.Albedo)
	ilr := IncomingLongWaveRadiation(r.AirTemperature)
	rn, err := finite(StageNetRadiation, NetRadiation(r.Insolation, r.Albedo, r.AirTemperature, r.OutgoingLongWaveRadiation))
	if err != nil {
		return models.Result{}, err
	}
	g, err := SoilHeatFlux(rn, r.LandSurfaceTemperature, r.Albedo, r.NDVI)
	if err != nil {
		return models.Result{}, err
	}
	delta, err := SlopeOfSaturatedVaporPressure(r.AirTemperature)
	if err != nil {
		return models.Result{}, err
	}
	gamma, err := PsychrometricConstant(r.Elevation, r.AirTemperature)
	if err != nil {
		return models.Result{}, err
	}
	et, err := combine(r.PriestleyTaylorCoefficient, rn, g, delta, gamma)
	if err != nil {
		return models.Result{}, err
	}
	return models.Result{
		Evapotranspiration:            et,
		NetShortWaveRadiation:         nswr,
		IncomingLongWaveRadiation:     ilr,
		NetRadiation:                  rn,
		SoilHeatFlux:                  g,
		SlopeOfSaturatedVaporPressure: delta,
		PsychrometricConstant:         gamma,
		Input:                         r,
	}, nil
}

// combine is the Priestley-Taylor step: α·(Rn − G)·Δ / (Δ + γ).
func combine(coefficient, netRadiation, soilHeatFlux, delta, gamma float64) (float64, error) {
	if delta+gamma == 0 {
		return 0, &StageError{Stage: StageEvapotranspiration, Err: ErrDivisionByZero}
	}
	return finite(StageEvapotranspiration, (coefficient*(netRadiation-soilHeatFlux)*delta)/(delta+gamma))
}

func finite(stage Stage, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &StageError{Stage: stage, Err: ErrDomain}
	}
	return v, nil
}
