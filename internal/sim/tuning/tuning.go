package tuning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/sim/world"
	"swarmlink.ai/internal/swarm/bidder"
	"swarmlink.ai/internal/swarm/commander"
	"swarmlink.ai/internal/swarm/player"
	"swarmlink.ai/internal/swarm/scan"
	"swarmlink.ai/internal/swarm/units"
)

//go:embed tuning.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("tuning.schema.json", schemaJSON)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`
	TickRateHz      int    `yaml:"tick_rate_hz"`

	Arena  world.Config          `yaml:"arena"`
	Scan   scan.Config           `yaml:"scan"`
	Bidder bidder.Config         `yaml:"bidder"`
	Build  commander.BuildConfig `yaml:"build"`
	Units  units.Config          `yaml:"units"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: protocol.Version,
		TickRateHz:      10,
		Arena:           world.DefaultConfig(),
		Scan:            scan.DefaultConfig(),
		Bidder:          bidder.DefaultConfig(),
		Build:           commander.DefaultBuildConfig(),
		Units:           units.DefaultConfig(),
	}
}

// Load overlays the file at path on Defaults and validates the result.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Validate checks t against the embedded JSON schema.
func (t Tuning) Validate() error {
	doc, err := t.document()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	if t.ProtocolVersion != protocol.Version {
		return fmt.Errorf("protocol_version %q, want %q", t.ProtocolVersion, protocol.Version)
	}
	return nil
}

// JSON renders t with its yaml field names.
func (t Tuning) JSON() ([]byte, error) {
	y, err := yaml.Marshal(t)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := yaml.Unmarshal(y, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

func (t Tuning) document() (any, error) {
	j, err := t.JSON()
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(j))
}

// World is the arena config with the shared tick rate applied.
func (t Tuning) World() world.Config {
	c := t.Arena
	c.TickRateHz = t.TickRateHz
	return c
}

// Player is the agent program config. Arena rules the agents plan around
// are copied from the arena section.
func (t Tuning) Player() player.Config {
	s := t.Scan
	s.EnforcerTax = t.Arena.EnforcerTax
	s.CamouflageTicks = t.Arena.CamouflageTicks
	s.EmbezzleTicks = t.Arena.EmbezzleTicks
	u := t.Units
	u.EnforcerTax = t.Arena.EnforcerTax
	return player.Config{
		Commander: commander.Config{Scan: s, Bidder: t.Bidder, Build: t.Build},
		Units:     u,
	}
}
