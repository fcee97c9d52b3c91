// Package profile loads named mirror parameter sets from YAML files.
//
// A profiles file is a catalog keyed by mirror name:
//
//	mirrors:
//	  bench-a:
//	    vbias: 50
//	    vdifference_max: 120
//	    hardware_filter_bw: 800
//
// Profiles are validated against the datasheet ranges at load time, so a
// file that loads cleanly can be applied to any open session.
package profile

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/DMQIS/MEMS-Ctrl/mti"
	"gopkg.in/yaml.v3"
)

// ErrUnknownMirror is returned by Lookup for a name the file does not
// define.
var ErrUnknownMirror = errors.New("profile: unknown mirror")

// Profile is one named set of the three electrical parameters.
type Profile struct {
	VBias    int `yaml:"vbias"`
	VDiffMax int `yaml:"vdifference_max"`
	FilterBW int `yaml:"hardware_filter_bw"`
}

// Config is a parsed profiles file.
type Config struct {
	Mirrors map[string]Profile `yaml:"mirrors"`
}

// Parse parses and validates a profiles document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("profile: parse failed: %w", err)
	}
	if len(cfg.Mirrors) == 0 {
		return nil, errors.New("profile: no mirrors defined")
	}

	for name, p := range cfg.Mirrors {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("mirror %q: %w", name, err)
		}
	}

	return &cfg, nil
}

// Load reads and parses the profiles file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Lookup returns the profile for the named mirror.
func (c *Config) Lookup(name string) (Profile, error) {
	p, ok := c.Mirrors[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownMirror, name)
	}

	return p, nil
}

// Names returns the defined mirror names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Mirrors))
	for name := range c.Mirrors {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Validate checks the three parameters against the datasheet ranges. A
// field missing from the YAML is a zero, which the bandwidth range
// rejects on its own; the voltages treat zero as a legitimate value.
func (p Profile) Validate() error {
	if p.VBias < mti.MinVBias || p.VBias > mti.MaxVBias {
		return fmt.Errorf("profile: vbias %d not in [%d, %d]",
			p.VBias, mti.MinVBias, mti.MaxVBias)
	}
	if p.VDiffMax < mti.MinVDiffMax || p.VDiffMax > mti.MaxVDiffMax {
		return fmt.Errorf("profile: vdifference max %d not in [%d, %d]",
			p.VDiffMax, mti.MinVDiffMax, mti.MaxVDiffMax)
	}
	if p.FilterBW < mti.MinFilterBW || p.FilterBW > mti.MaxFilterBW {
		return fmt.Errorf("profile: filter bandwidth %d not in [%d, %d]",
			p.FilterBW, mti.MinFilterBW, mti.MaxFilterBW)
	}

	return nil
}

// Apply pushes the profile to the session through the normal parameter
// setters, so the usual guards hold: the session must be open and the
// drive must be off.
func (p Profile) Apply(s *mti.Session) error {
	return s.SetMirrorParams(p.VBias, p.VDiffMax, p.FilterBW)
}
