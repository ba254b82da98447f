// Package sunrise turns a wake-up light profile into a timed LED sequence.
//
// A profile is a list of phases; each phase fades the whole strip from one
// color to another over a fixed number of steps. Profiles are baked into the
// binary but can be replaced by a YAML file on disk for experimentation.
package sunrise

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sunrised/internal/led"
)

//go:embed profiles
var embedded embed.FS

// Duration accepts "15m" style values in profile files.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Phase fades the strip from one color to another. From may be omitted for
// every phase but the first; it then chains from the previous phase's To.
type Phase struct {
	Name     string     `yaml:"name"`
	Duration Duration   `yaml:"duration"`
	Steps    int        `yaml:"steps"`
	From     *led.Color `yaml:"from,omitempty"`
	To       led.Color  `yaml:"to"`
}

// Profile is a complete wake-up light sequence. After the last phase the strip
// holds the final color until something else clears it.
type Profile struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Phases      []Phase `yaml:"phases"`
}

func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if len(p.Phases) == 0 {
		return fmt.Errorf("profile %q has no phases", p.Name)
	}
	if p.Phases[0].From == nil {
		return fmt.Errorf("profile %q: first phase needs a from color", p.Name)
	}
	for i, ph := range p.Phases {
		if ph.Duration <= 0 {
			return fmt.Errorf("profile %q phase %d: duration must be positive", p.Name, i)
		}
		if ph.Steps <= 0 {
			return fmt.Errorf("profile %q phase %d: steps must be positive", p.Name, i)
		}
	}
	return nil
}

// Total is the natural run time of all phases.
func (p Profile) Total() time.Duration {
	var sum time.Duration
	for _, ph := range p.Phases {
		sum += time.Duration(ph.Duration)
	}
	return sum
}

// Final is the color held after the sequence completes.
func (p Profile) Final() led.Color {
	return p.Phases[len(p.Phases)-1].To
}

// from resolves the start color of phase i, chaining from the previous To.
func (p Profile) from(i int) led.Color {
	if p.Phases[i].From != nil {
		return *p.Phases[i].From
	}
	return p.Phases[i-1].To
}

// Lerp interpolates one channel-wise step of a fade. The fraction step/steps
// is truncated per channel, so early steps stay on the dark side of the ramp.
func Lerp(from, to led.Color, step, steps int) led.Color {
	f := float64(step) / float64(steps)
	ch := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*f)
	}
	return led.Color{R: ch(from.R, to.R), G: ch(from.G, to.G), B: ch(from.B, to.B)}
}

// Builtin returns the profiles baked into the binary, keyed by name.
func Builtin() (map[string]Profile, error) {
	out := make(map[string]Profile)
	err := fs.WalkDir(embedded, "profiles", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		data, err := embedded.ReadFile(path)
		if err != nil {
			return err
		}
		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if err := p.Validate(); err != nil {
			return err
		}
		out[p.Name] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Names lists the builtin profile names, sorted.
func Names() []string {
	profiles, err := Builtin()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a profile by name, or from a YAML file when path is set. A
// file takes precedence so a device can carry a tuned profile without a
// rebuild.
func Load(name, path string) (Profile, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
		}
		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Profile{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		if err := p.Validate(); err != nil {
			return Profile{}, err
		}
		return p, nil
	}

	profiles, err := Builtin()
	if err != nil {
		return Profile{}, err
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}
