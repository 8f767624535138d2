package shared

type Personality string

const (
	Healthy         Personality = "healthy"
	DoorAbuser      Personality = "door_abuser"
	DyingCompressor Personality = "dying_compressor"
	FrostBuilder    Personality = "frost_builder"
	EnergyHog       Personality = "energy_hog"
)

type VirtualDevice struct {
	DeviceID     string
	LocationName string
	Lat          float64
	Lon          float64
	Personality  Personality
	Description  string
}

// DefaultFleet returns the compiled-in roster of virtual freezers. Each call
// returns a new slice so callers cannot mutate a shared copy.
func DefaultFleet() []VirtualDevice {
	return []VirtualDevice{
		{
			DeviceID:     "FREEZER_001",
			LocationName: "London",
			Lat:          51.5074,
			Lon:          -0.1278,
			Personality:  Healthy,
			Description:  "The Perfect Freezer - Always stable",
		},
		{
			DeviceID:     "FREEZER_002",
			LocationName: "Manchester",
			Lat:          53.4808,
			Lon:          -2.2426,
			Personality:  DoorAbuser,
			Description:  "The Door Abuser - Frequent door open events",
		},
		{
			DeviceID:     "FREEZER_003",
			LocationName: "Glasgow",
			Lat:          55.8642,
			Lon:          -4.2518,
			Personality:  DyingCompressor,
			Description:  "The Dying Compressor - Rising temp, failing",
		},
		{
			DeviceID:     "FREEZER_004",
			LocationName: "Birmingham",
			Lat:          52.4862,
			Lon:          -1.8904,
			Personality:  FrostBuilder,
			Description:  "The Frost Builder - High frost, needs defrost",
		},
		{
			DeviceID:     "FREEZER_005",
			LocationName: "Leeds",
			Lat:          53.8008,
			Lon:          -1.5491,
			Personality:  EnergyHog,
			Description:  "The Energy Hog - High power, low efficiency",
		},
	}
}
