package models

// Result is the evapotranspiration value together with every intermediate term of the formula chain.
type Result struct {
	Evapotranspiration            float64 `json:"evapotranspiration"`
	NetShortWaveRadiation         float64 `json:"netShortWaveRadiation"`
	IncomingLongWaveRadiation     float64 `json:"incomingLongWaveRadiation"`
	NetRadiation                  float64 `json:"netRadiation"`
	SoilHeatFlux                  float64 `json:"soilHeatFlux"`
	SlopeOfSaturatedVaporPressure float64 `json:"slopeOfSaturatedVaporPressure"`
	PsychrometricConstant         float64 `json:"psychrometricConstant"`
	Input                         Record  `json:"input"`
	Cached                        bool    `json:"cached,omitempty"` // Indicates result served from cache
}
