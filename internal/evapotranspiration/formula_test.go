package evapotranspiration

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/kjstillabower/evapotranspiration-service/internal/models"
)

// Reference values computed independently from the formula definitions for the demo record.
const (
	demoEvapotranspiration = 11483.694169064282
	demoNetRadiation       = -5499.9698672953
	demoSoilHeatFlux       = -14724.63868906904
	demoDelta              = 55.2809750495913
	demoGamma              = 0.6709979071779368
)

func approxEqual(got, want, relTol float64) bool {
	if want == 0 {
		return math.Abs(got) <= relTol
	}
	return math.Abs(got-want) <= relTol*math.Abs(want)
}

func TestNetShortWaveRadiation_ZeroAlbedoReturnsInsolation(t *testing.T) {
	for _, insolation := range []float64{0, 1, 250.5, 600, 1361, -3} {
		if got := NetShortWaveRadiation(insolation, 0); got != insolation {
			t.Errorf("NetShortWaveRadiation(%v, 0) = %v, want %v", insolation, got, insolation)
		}
	}
}

func TestNetShortWaveRadiation(t *testing.T) {
	tests := []struct {
		name       string
		insolation float64
		albedo     float64
		want       float64
	}{
		{"typical", 600, 0.1, 540},
		{"full reflection", 600, 1, 0},
		{"demo out of range albedo", 600, 10, -5400},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NetShortWaveRadiation(tc.insolation, tc.albedo); !approxEqual(got, tc.want, 1e-12) {
				t.Errorf("NetShortWaveRadiation(%v, %v) = %v, want %v", tc.insolation, tc.albedo, got, tc.want)
			}
		})
	}
}

func TestIncomingLongWaveRadiation_StrictlyIncreasing(t *testing.T) {
	prev := IncomingLongWaveRadiation(0.5)
	for temp := 1.0; temp <= 400; temp += 0.5 {
		cur := IncomingLongWaveRadiation(temp)
		if cur <= prev {
			t.Fatalf("IncomingLongWaveRadiation(%v) = %v, not greater than value at %v (%v)", temp, cur, temp-0.5, prev)
		}
		prev = cur
	}
}

func TestIncomingLongWaveRadiation_Value(t *testing.T) {
	want := 5.67e-8 * 300 * 300 * 300 * 300
	if got := IncomingLongWaveRadiation(300); !approxEqual(got, want, 1e-12) {
		t.Errorf("IncomingLongWaveRadiation(300) = %v, want %v", got, want)
	}
}

func TestNetRadiation_Reference(t *testing.T) {
	got := NetRadiation(600, 0.1, 300, 100)
	want := 600*0.9 + (5.67e-8*math.Pow(300, 4) - 100)
	if math.Abs(got-899.27) > 0.01 {
		t.Errorf("NetRadiation(600, 0.1, 300, 100) = %v, want 899.27 ±0.01", got)
	}
	if !approxEqual(got, want, 1e-12) {
		t.Errorf("NetRadiation(600, 0.1, 300, 100) = %v, want %v", got, want)
	}
}

func TestSoilHeatFlux_ZeroAlbedo(t *testing.T) {
	_, err := SoilHeatFlux(500, 300, 0, 0.5)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("error = %v, want ErrDivisionByZero", err)
	}
	if !errors.Is(err, ErrDomain) {
		t.Errorf("error = %v, want match on ErrDomain", err)
	}
	if stage, ok := StageOf(err); !ok || stage != StageSoilHeatFlux {
		t.Errorf("StageOf() = %q, %v, want %q", stage, ok, StageSoilHeatFlux)
	}
}

func TestSoilHeatFlux_FullVegetationCoverReducesFlux(t *testing.T) {
	bare, err := SoilHeatFlux(500, 300, 0.2, 0)
	if err != nil {
		t.Fatalf("SoilHeatFlux() err = %v", err)
	}
	covered, err := SoilHeatFlux(500, 300, 0.2, 1)
	if err != nil {
		t.Fatalf("SoilHeatFlux() err = %v", err)
	}
	if !approxEqual(covered, bare*0.02, 1e-12) {
		t.Errorf("covered = %v, want 2%% of bare soil flux %v", covered, bare)
	}
}

func TestSlopeOfSaturatedVaporPressure_Reference(t *testing.T) {
	got, err := SlopeOfSaturatedVaporPressure(27)
	if err != nil {
		t.Fatalf("SlopeOfSaturatedVaporPressure(27) err = %v", err)
	}
	if math.Abs(got-55.6) > 0.5 {
		t.Errorf("SlopeOfSaturatedVaporPressure(27) = %v, want 55.6 ±0.5", got)
	}
	if !approxEqual(got, demoDelta, 1e-12) {
		t.Errorf("SlopeOfSaturatedVaporPressure(27) = %v, want %v", got, demoDelta)
	}
}

func TestSlopeOfSaturatedVaporPressure_Failures(t *testing.T) {
	tests := []struct {
		name    string
		temp    float64
		wantErr error
	}{
		{"zero denominator", -237.3, ErrDivisionByZero},
		{"exponent overflow", -237.30001, ErrDomain},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SlopeOfSaturatedVaporPressure(tc.temp)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if stage, _ := StageOf(err); stage != StageSlopeOfSaturatedVaporPressure {
				t.Errorf("stage = %q, want %q", stage, StageSlopeOfSaturatedVaporPressure)
			}
		})
	}
}

func TestPsychrometricConstant_Reference(t *testing.T) {
	got, err := PsychrometricConstant(10, 27)
	if err != nil {
		t.Fatalf("PsychrometricConstant(10, 27) err = %v", err)
	}
	if !approxEqual(got, demoGamma, 1e-12) {
		t.Errorf("PsychrometricConstant(10, 27) = %v, want %v", got, demoGamma)
	}
}

func TestPsychrometricConstant_ZeroDenominator(t *testing.T) {
	_, err := PsychrometricConstant(10, 1055.2742616033754)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("error = %v, want ErrDivisionByZero", err)
	}
	if stage, _ := StageOf(err); stage != StagePsychrometricConstant {
		t.Errorf("stage = %q, want %q", stage, StagePsychrometricConstant)
	}
}

func TestCombine_DeltaPlusGammaZero(t *testing.T) {
	_, err := combine(1.26, 500, 50, 0.75, -0.75)
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("error = %v, want ErrDomain", err)
	}
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("error = %v, want ErrDivisionByZero", err)
	}
	if stage, _ := StageOf(err); stage != StageEvapotranspiration {
		t.Errorf("stage = %q, want %q", stage, StageEvapotranspiration)
	}
}

func TestEvaluate_DemoRecord(t *testing.T) {
	res, err := Evaluate(models.DemoRecord())
	if err != nil {
		t.Fatalf("Evaluate(demo) err = %v", err)
	}
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"evapotranspiration", res.Evapotranspiration, demoEvapotranspiration},
		{"net radiation", res.NetRadiation, demoNetRadiation},
		{"soil heat flux", res.SoilHeatFlux, demoSoilHeatFlux},
		{"delta", res.SlopeOfSaturatedVaporPressure, demoDelta},
		{"gamma", res.PsychrometricConstant, demoGamma},
		{"net short wave", res.NetShortWaveRadiation, -5400},
	}
	for _, c := range checks {
		if !approxEqual(c.got, c.want, 1e-9) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if res.Input != models.DemoRecord() {
		t.Errorf("Input = %+v, want demo record", res.Input)
	}
}

func TestEvapoTranspiration_MatchesEvaluate(t *testing.T) {
	r := models.Record{
		Albedo:                     0.23,
		AirTemperature:             298.15,
		Elevation:                  120,
		Insolation:                 750,
		OutgoingLongWaveRadiation:  420,
		NDVI:                       0.55,
		LandSurfaceTemperature:     305,
		PriestleyTaylorCoefficient: 1.26,
	}
	got, err := EvapoTranspiration(r)
	if err != nil {
		t.Fatalf("EvapoTranspiration() err = %v", err)
	}
	res, err := Evaluate(r)
	if err != nil {
		t.Fatalf("Evaluate() err = %v", err)
	}
	if got != res.Evapotranspiration {
		t.Errorf("EvapoTranspiration() = %v, Evaluate().Evapotranspiration = %v", got, res.Evapotranspiration)
	}
	want := r.PriestleyTaylorCoefficient * (res.NetRadiation - res.SoilHeatFlux) * res.SlopeOfSaturatedVaporPressure /
		(res.SlopeOfSaturatedVaporPressure + res.PsychrometricConstant)
	if !approxEqual(got, want, 1e-12) {
		t.Errorf("EvapoTranspiration() = %v, want %v", got, want)
	}
}

func TestEvaluate_StopsAtFirstFailingStage(t *testing.T) {
	r := models.DemoRecord()
	r.Albedo = 0
	res, err := Evaluate(r)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if stage, _ := StageOf(err); stage != StageSoilHeatFlux {
		t.Errorf("stage = %q, want %q", stage, StageSoilHeatFlux)
	}
	if res != (models.Result{}) {
		t.Errorf("partial result returned: %+v", res)
	}
}

func TestEvaluate_NonFiniteInput(t *testing.T) {
	r := models.DemoRecord()
	r.OutgoingLongWaveRadiation = math.Inf(1)
	_, err := Evaluate(r)
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("error = %v, want ErrDomain", err)
	}
	if stage, _ := StageOf(err); stage != StageNetRadiation {
		t.Errorf("stage = %q, want %q", stage, StageNetRadiation)
	}
}

func TestEvaluate_ConcurrentCallers(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := EvapoTranspiration(models.DemoRecord())
			if err != nil {
				errs <- err
				return
			}
			if !approxEqual(v, demoEvapotranspiration, 1e-9) {
				errs <- errors.New("unexpected value")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestStageError_Message(t *testing.T) {
	err := &StageError{Stage: StagePsychrometricConstant, Err: ErrDivisionByZero}
	want := "psychrometric_constant: division by zero: numeric domain error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if _, ok := StageOf(errors.New("plain")); ok {
		t.Error("StageOf(plain error) ok = true, want false")
	}
}
