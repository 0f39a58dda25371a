package config

// AppConfig carries every runtime setting, resolved from flags in cmd.
type AppConfig struct {
	Port     int
	Endpoint string

	Simulate  bool
	FrameRate float64

	SensorRows    int
	SensorCols    int
	DisplayWidth  int
	DisplayHeight int

	Colors      int
	Fade        float64
	PixelFormat string

	NormalizeMode string
	SensorMinC    float64
	SensorMaxC    float64
	NoiseFloorC   float64

	Interpolation string
	CompositeMode string
	Stride        int
	Alpha         float64
	Orientation   string

	OutputDir      string
	SeriesLog      bool
	RawLogEnabled  bool
	RawLogDir      string
	IngestLogEvery int
	IngestFallback bool
}
