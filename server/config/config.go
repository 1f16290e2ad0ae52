// Package config loads a YAML document describing the units a server should register at startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gridtie/modbus/server"
)

// Config is the top level YAML document: a list of units to seed into a server.UnitRegistry.
type Config struct {
	Units []Unit `yaml:"units"`
}

// Unit describes one slave's initial address-space contents.
type Unit struct {
	ID uint8 `yaml:"id"`

	Coils            []Seed         `yaml:"coils"`
	DiscreteInputs   []Seed         `yaml:"discrete_inputs"`
	HoldingRegisters []SeedRegister `yaml:"holding_registers"`
	InputRegisters   []SeedRegister `yaml:"input_registers"`
}

// Seed sets a single bit (coil or discrete input) address to a fixed boolean value.
type Seed struct {
	Address uint16 `yaml:"address"`
	Value   bool   `yaml:"value"`
}

// SeedRegister sets a single register (holding or input) address to a fixed 16 bit value.
type SeedRegister struct {
	Address uint16 `yaml:"address"`
	Value   uint16 `yaml:"value"`
}

// Load reads and parses a YAML config document from path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: could not read file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: could not parse yaml: %w", err)
	}
	return cfg, nil
}

// Build creates a server.UnitRegistry populated per the config, one DataImage per unit.
func (c *Config) Build() *server.UnitRegistry {
	units := server.NewUnitRegistry()
	for _, u := range c.Units {
		image := server.NewDataImage()
		for _, s := range u.Coils {
			image.SeedCoil(s.Address, s.Value)
		}
		for _, s := range u.DiscreteInputs {
			image.SeedDiscreteInput(s.Address, s.Value)
		}
		for _, s := range u.HoldingRegisters {
			image.SeedHoldingRegister(s.Address, s.Value)
		}
		for _, s := range u.InputRegisters {
			image.SeedInputRegister(s.Address, s.Value)
		}
		units.Add(u.ID, image)
	}
	return units
}
