package domain

// AnomalyKind identifies the synthetic fault injected into a simulated reading.
type AnomalyKind int

const (
	AnomalyNone AnomalyKind = iota
	AnomalyTemperature
	AnomalyGPSLoss
	AnomalyAltitude
)

func (k AnomalyKind) String() string {
	switch k {
	case AnomalyTemperature:
		return "temperature"
	case AnomalyGPSLoss:
		return "gps_loss"
	case AnomalyAltitude:
		return "altitude"
	default:
		return "none"
	}
}

// GPSFix is a lat/lon pair; nil pointers encode a lost fix as JSON null.
type GPSFix struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// DroneTelemetry is the wire payload published by the drone simulator.
type DroneTelemetry struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Altitude    float64 `json:"altitude"`
	Battery     int     `json:"battery"`
	GPS         GPSFix  `json:"gps"`
}

// SprayCondition is the environmental fitness verdict for crop spraying.
type SprayCondition string

const (
	SprayOK          SprayCondition = "APTO"
	SprayBadTemp     SprayCondition = "NO_APTO_TEMP"
	SprayBadHumidity SprayCondition = "NO_APTO_HUMEDAD"
)

// RainCondition classifies rain likelihood from humidity and a sampled probability.
type RainCondition string

const (
	RainNone     RainCondition = "SIN_LLUVIA"
	RainRisk     RainCondition = "RIESGO_LLUVIA"
	RainDetected RainCondition = "LLUVIA_DETECTADA"
)
