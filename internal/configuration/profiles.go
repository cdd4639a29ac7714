package configuration

type ProfileConfig struct {
	// ID is the unique identifier of this profile.
	ID string `json:"id"`

	// Extends references another profile whose values serve as a base
	// for this one.
	Extends string `json:"extends,omitempty"`

	// Brightness, Contrast and Volume are percentages in [0..100].
	Brightness *int `json:"brightness,omitempty"`
	Contrast   *int `json:"contrast,omitempty"`
	Volume     *int `json:"volume,omitempty"`

	InputSource *InputSourceValue `json:"inputSource,omitempty"`
	PowerMode   *PowerModeValue   `json:"powerMode,omitempty"`
}
