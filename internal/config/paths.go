// Package config holds the two configuration surfaces of the pipeline: the
// measurement directory layout taken from the environment, and the JSON
// analysis tuning file.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Paths is the measurement directory layout. Each entry is read from the
// environment as a path relative to Root.
type Paths struct {
	// Root anchors the relative directories; defaults to the working
	// directory.
	Root string `env:"DIR_ROOT" envDefault:"."`

	Acoustic      string `env:"DIR_ACOUSTIC" envDefault:"data/acoustic"`
	EfieldCurrent string `env:"DIR_EFIELD_CURRENT" envDefault:"data/efield_current"`
	MEP           string `env:"DIR_MEP" envDefault:"data/mep"`
	MRI           string `env:"DIR_MRI" envDefault:"data/mri"`
	SavePlot      string `env:"DIR_SAVE_PLOT" envDefault:"plots"`
}

// LoadPaths reads the directory layout from the environment and resolves
// every directory against Root.
func LoadPaths() (*Paths, error) {
	p := &Paths{}
	if err := env.Parse(p); err != nil {
		return nil, fmt.Errorf("parsing path environment: %w", err)
	}
	p.resolve()
	return p, nil
}

func (p *Paths) resolve() {
	for _, dir := range []*string{&p.Acoustic, &p.EfieldCurrent, &p.MEP, &p.MRI, &p.SavePlot} {
		if !filepath.IsAbs(*dir) {
			*dir = filepath.Join(p.Root, *dir)
		}
	}
}

// MEPTable returns the path of the MEP amplitude and latency table.
func (p *Paths) MEPTable() string {
	return filepath.Join(p.MEP, "mep_amplitude_latency.csv")
}

// ProfileFile returns the path of a normalized intensity profile scan.
func (p *Paths) ProfileFile(direction string) string {
	return filepath.Join(p.EfieldCurrent, fmt.Sprintf("efield_profile_%s.csv", direction))
}
