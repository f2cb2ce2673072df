package preset

// Built-in preset ids.
const (
	Brightest = "brightest"
	Mid       = "mid"
	Midnight  = "midnight"
)

// Parameter codes used by the built-ins.
const (
	CodeBrightness = "0x10"
	CodeContrast   = "0x12"
)

// Builtins returns the built-in presets in their fixed order. Each call
// returns fresh copies.
func Builtins() []Preset {
	return []Preset{
		{ID: Brightest, Name: "Brightest", Values: Values{CodeBrightness: 100, CodeContrast: 75}},
		{ID: Mid, Name: "Mid", Values: Values{CodeBrightness: 50, CodeContrast: 50}},
		{ID: Midnight, Name: "Midnight", Values: Values{CodeBrightness: 10, CodeContrast: 40}},
	}
}
