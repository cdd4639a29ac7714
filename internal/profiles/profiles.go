package profiles

import (
	"fmt"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/vcp"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	ProfileMap = cmap.New[*Profile]()
)

// Profile is a named set of target values that can be applied to monitors.
type Profile struct {
	Config configuration.ProfileConfig
}

func NewProfile(config configuration.ProfileConfig) *Profile {
	return &Profile{Config: config}
}

func (profile *Profile) GetId() string {
	return profile.Config.ID
}

// Values is a fully resolved set of profile values. Fields that are nil
// are not touched when the profile is applied.
type Values struct {
	Brightness *int `json:"brightness,omitempty"`
	Contrast   *int `json:"contrast,omitempty"`
	Volume     *int `json:"volume,omitempty"`

	InputSource *vcp.InputSource `json:"inputSource,omitempty"`
	PowerMode   *vcp.PowerMode   `json:"powerMode,omitempty"`
}

// Flatten resolves the extends chain of the given profile into a single
// set of values. Values of an extending profile override those of its
// base.
func Flatten(profileId string) (*Values, error) {
	chain := []*Profile{}
	visited := map[string]bool{}

	currentId := profileId
	for currentId != "" {
		if visited[currentId] {
			return nil, fmt.Errorf("profile dependency cycle at: %s", currentId)
		}
		visited[currentId] = true

		profile, ok := ProfileMap.Get(currentId)
		if !ok {
			return nil, fmt.Errorf("no profile with id '%s' found", currentId)
		}
		chain = append(chain, profile)
		currentId = profile.Config.Extends
	}

	values := &Values{}
	// apply base first, leaf last
	for i := len(chain) - 1; i >= 0; i-- {
		config := chain[i].Config

		if config.Brightness != nil {
			values.Brightness = config.Brightness
		}
		if config.Contrast != nil {
			values.Contrast = config.Contrast
		}
		if config.Volume != nil {
			values.Volume = config.Volume
		}
		if config.InputSource != nil {
			source, err := config.InputSource.Parse()
			if err != nil {
				return nil, fmt.Errorf("profile %s: %s", config.ID, err)
			}
			values.InputSource = &source
		}
		if config.PowerMode != nil {
			mode, err := config.PowerMode.Parse()
			if err != nil {
				return nil, fmt.Errorf("profile %s: %s", config.ID, err)
			}
			values.PowerMode = &mode
		}
	}

	return values, nil
}
