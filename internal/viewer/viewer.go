package viewer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dispatcher/internal/channel"
	"dispatcher/internal/services"
)

// ConfigName is the state file written next to the relocated dataset.
const ConfigName = "neuroglancer_config.json"

// timeResolution is the fixed value for the synthetic time axis, in seconds.
const timeResolution = 0.001

// ImageConfig carries the acquisition geometry and output targets for one
// visualization descriptor.
type ImageConfig struct {
	XRes      float64
	YRes      float64
	ZRes      float64
	OutputDir string
	BaseURL   string
	Palette   channel.Palette
}

// axis is one dimension entry: physical step size and its unit.
type axis [2]any

// Dimensions lists the state axes. Field order here is the serialized key
// order the viewer expects.
type Dimensions struct {
	Z axis `json:"z"`
	Y axis `json:"y"`
	X axis `json:"x"`
	T axis `json:"t"`
}

// Shader describes how a layer's intensity maps to screen color.
type Shader struct {
	Color   string `json:"color"`
	Emitter string `json:"emitter"`
	Vec     string `json:"vec"`
}

// NormalizedRange clamps layer intensities before shading.
type NormalizedRange struct {
	Range [2]int `json:"range"`
}

// ShaderControls holds the adjustable shader inputs.
type ShaderControls struct {
	Normalized NormalizedRange `json:"normalized"`
}

// Layer is one image channel in the viewer state.
type Layer struct {
	Source         string         `json:"source"`
	Type           string         `json:"type"`
	Channel        int            `json:"channel"`
	Name           string         `json:"name"`
	Opacity        float64        `json:"opacity"`
	Blend          string         `json:"blend"`
	Tab            string         `json:"tab"`
	Shader         Shader         `json:"shader"`
	ShaderControls ShaderControls `json:"shaderControls"`
}

// State is the full visualization descriptor. Link is filled in after the
// state is assembled so the serialized file carries its own public URL.
type State struct {
	Link                    string     `json:"ng_link,omitempty"`
	Title                   string     `json:"title"`
	Dimensions              Dimensions `json:"dimensions"`
	CrossSectionOrientation [4]float64 `json:"crossSectionOrientation"`
	CrossSectionScale       float64    `json:"crossSectionScale"`
	Layers                  []Layer    `json:"layers"`
}

// StateBuilder assembles a visualization state from a relocated dataset path
// and its fused channel stores.
type StateBuilder interface {
	Build(datasetPath string, channelPaths []string) (State, error)
}

// Builder is the default StateBuilder.
type Builder struct {
	cfg    ImageConfig
	logger *slog.Logger
}

// New returns a Builder for the given image geometry.
func New(cfg ImageConfig, logger *slog.Logger) *Builder {
	return &Builder{cfg: cfg, logger: logger}
}

// Build assembles the state for a dataset. Channel paths are sorted
// lexicographically so layer order is stable across runs, and each layer's
// color comes from the configured palette keyed by emission wavelength.
func (b *Builder) Build(datasetPath string, channelPaths []string) (State, error) {
	paths := append([]string(nil), channelPaths...)
	sort.Strings(paths)

	layers := make([]Layer, 0, len(paths))
	for _, path := range paths {
		emission, err := channel.EmissionFromStem(path)
		if err != nil {
			return State{}, err
		}
		base := filepath.Base(path)
		layers = append(layers, Layer{
			Source:  "zarr://" + path,
			Type:    "image",
			Channel: 0,
			Name:    strings.TrimSuffix(base, filepath.Ext(base)),
			Opacity: 1,
			Blend:   "additive",
			Tab:     "rendering",
			Shader: Shader{
				Color:   b.cfg.Palette.Hex(emission),
				Emitter: "RGB",
				Vec:     "vec3",
			},
			ShaderControls: ShaderControls{
				Normalized: NormalizedRange{Range: [2]int{0, 200}},
			},
		})
	}

	return State{
		Title: datasetTitle(datasetPath),
		Dimensions: Dimensions{
			Z: axis{b.cfg.ZRes, "microns"},
			Y: axis{b.cfg.YRes, "microns"},
			X: axis{b.cfg.XRes, "microns"},
			T: axis{timeResolution, "seconds"},
		},
		CrossSectionOrientation: [4]float64{0.5, 0.5, 0.5, -0.5},
		CrossSectionScale:       15,
		Layers:                  layers,
	}, nil
}

// Write assembles the state, injects its public link, and serializes it into
// the configured output directory. It returns the written file path and the
// link.
func (b *Builder) Write(datasetPath string, channelPaths []string) (string, string, error) {
	state, err := b.Build(datasetPath, channelPaths)
	if err != nil {
		return "", "", err
	}
	link := Link(b.cfg.BaseURL, datasetPath)
	state.Link = link

	out := filepath.Join(b.cfg.OutputDir, ConfigName)
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return "", "", services.Wrap(services.ErrConfiguration, "viewer", "create output directory", b.cfg.OutputDir, err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", "", services.Wrap(services.ErrConfiguration, "viewer", "encode state", out, err)
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return "", "", services.Wrap(services.ErrConfiguration, "viewer", "write state", out, err)
	}
	if b.logger != nil {
		b.logger.Info("wrote visualization state",
			slog.String("path", out),
			slog.Int("layers", len(state.Layers)),
			slog.String("link", link))
	}
	return out, link, nil
}

// Link builds the public viewer URL for a relocated dataset.
func Link(baseURL, datasetPath string) string {
	return fmt.Sprintf("%s#!%s/%s", baseURL, datasetPath, ConfigName)
}

// datasetTitle extracts the specimen identifier from a dataset path, the
// second underscore-delimited token of its final element.
func datasetTitle(datasetPath string) string {
	base := filepath.Base(strings.TrimRight(datasetPath, "/"))
	parts := strings.Split(base, "_")
	if len(parts) > 1 {
		return parts[1]
	}
	return base
}
