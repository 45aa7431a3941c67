package version

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

//go:embed manifest/features.yaml
var manifestFS embed.FS

// Manifest lists protocol features and the version that introduced them.
type Manifest struct {
	MaxVersion uint32             `yaml:"max_version"`
	Features   map[string]Feature `yaml:"features"`

	packetSince map[wire.PacketType]uint32
}

// Feature is one versioned protocol capability.
type Feature struct {
	Since       uint32   `yaml:"since"`
	Description string   `yaml:"description"`
	Packets     []uint32 `yaml:"packets"`
}

var (
	manifestOnce sync.Once
	manifest     *Manifest
	manifestErr  error
)

// LoadManifest returns the embedded feature manifest.
func LoadManifest() (*Manifest, error) {
	manifestOnce.Do(func() {
		data, err := manifestFS.ReadFile("manifest/features.yaml")
		if err != nil {
			manifestErr = fmt.Errorf("reading feature manifest: %w", err)
			return
		}
		manifest, manifestErr = parseManifest(data)
	})
	return manifest, manifestErr
}

func mustManifest() *Manifest {
	m, err := LoadManifest()
	if err != nil {
		panic(err)
	}
	return m
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing feature manifest: %w", err)
	}

	m.packetSince = make(map[wire.PacketType]uint32)
	for name, f := range m.Features {
		for _, p := range f.Packets {
			pt := wire.PacketType(p)
			if prev, ok := m.packetSince[pt]; ok && prev != f.Since {
				return nil, fmt.Errorf("packet %s listed in %s with conflicting version", pt, name)
			}
			m.packetSince[pt] = f.Since
		}
	}
	return &m, nil
}

// FeaturesAt returns the names of all features available on version v, sorted.
func (m *Manifest) FeaturesAt(v uint32) []string {
	var out []string
	for name, f := range m.Features {
		if v >= f.Since {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
