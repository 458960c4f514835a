// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht85

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CommandWord is a 16-bit sensor command, transmitted most significant byte
// first. The word itself is the addressed register; no separate register
// byte precedes it on the wire.
type CommandWord uint16

func (w CommandWord) bytes() []byte {
	return []byte{byte(w >> 8), byte(w)}
}

// CommandTable maps logical operations to command words. The table is
// injected at construction, so protocol-compatible sensor variants with a
// different register map are driven by loading a different table rather
// than by changing the driver.
//
// The periodic section is keyed by measurement rate ("0.5", "1", "2", "4",
// "10") and then by repeatability ("high", "medium", "low"). Quote the rate
// keys in YAML override files so they parse as strings.
type CommandTable struct {
	Address       uint16                            `yaml:"address"`
	SingleShot    map[string]CommandWord            `yaml:"single_shot"`
	Periodic      map[string]map[string]CommandWord `yaml:"periodic"`
	ART           CommandWord                       `yaml:"accelerated_response"`
	Stop          CommandWord                       `yaml:"stop"`
	SoftReset     CommandWord                       `yaml:"soft_reset"`
	Status        CommandWord                       `yaml:"status"`
	ClearStatus   CommandWord                       `yaml:"clear_status"`
	SerialNumber  CommandWord                       `yaml:"serial_number"`
	Fetch         CommandWord                       `yaml:"fetch"`
	HeaterEnable  CommandWord                       `yaml:"heater_enable"`
	HeaterDisable CommandWord                       `yaml:"heater_disable"`
}

// DefaultCommandTable returns the SHT85 register map from the datasheet.
func DefaultCommandTable() *CommandTable {
	return &CommandTable{
		Address: 0x44,
		SingleShot: map[string]CommandWord{
			"high":   0x2400,
			"medium": 0x240b,
			"low":    0x2416,
		},
		Periodic: map[string]map[string]CommandWord{
			"0.5": {"high": 0x2032, "medium": 0x2024, "low": 0x202f},
			"1":   {"high": 0x2130, "medium": 0x2126, "low": 0x212d},
			"2":   {"high": 0x2236, "medium": 0x2220, "low": 0x222b},
			"4":   {"high": 0x2334, "medium": 0x2322, "low": 0x2329},
			"10":  {"high": 0x2737, "medium": 0x2721, "low": 0x272a},
		},
		ART:           0x2b32,
		Stop:          0x3093,
		SoftReset:     0x30a2,
		Status:        0xf32d,
		ClearStatus:   0x3041,
		SerialNumber:  0x3682,
		Fetch:         0xe000,
		HeaterEnable:  0x306d,
		HeaterDisable: 0x3066,
	}
}

// ParseCommandTable decodes a command table from YAML and validates it.
func ParseCommandTable(data []byte) (*CommandTable, error) {
	t := &CommandTable{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("sht85: parsing command table: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadCommandTable reads a YAML command table from path.
func LoadCommandTable(path string) (*CommandTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sht85: reading command table: %w", err)
	}
	return ParseCommandTable(data)
}

// validate fails fast when a required entry is absent. A missing key is a
// construction-time contract violation, not a runtime fault: the state
// machine never looks up a word that validate has not seen.
func (t *CommandTable) validate() error {
	if t.Address == 0 {
		return configErrorf("command table: missing address")
	}
	for _, rep := range []Repeatability{RepeatabilityHigh, RepeatabilityMedium, RepeatabilityLow} {
		if _, ok := t.SingleShot[rep.key()]; !ok {
			return configErrorf("command table: missing single_shot/%s", rep.key())
		}
		for _, rate := range []SampleRate{RateHalfHertz, RateHertz, RateTwoHertz, RateFourHertz, Rate10Hertz} {
			if _, ok := t.Periodic[rate.key()][rep.key()]; !ok {
				return configErrorf("command table: missing periodic/%s/%s", rate.key(), rep.key())
			}
		}
	}
	named := []struct {
		name string
		word CommandWord
	}{
		{"accelerated_response", t.ART},
		{"stop", t.Stop},
		{"soft_reset", t.SoftReset},
		{"status", t.Status},
		{"clear_status", t.ClearStatus},
		{"serial_number", t.SerialNumber},
		{"fetch", t.Fetch},
		{"heater_enable", t.HeaterEnable},
		{"heater_disable", t.HeaterDisable},
	}
	for _, n := range named {
		if n.word == 0 {
			return configErrorf("command table: missing %s", n.name)
		}
	}
	return nil
}

// singleShot resolves the measurement word for one repeatability. The enum
// is validated before lookup, so a miss here is a table defect.
func (t *CommandTable) singleShot(rep Repeatability) (CommandWord, error) {
	w, ok := t.SingleShot[rep.key()]
	if !ok {
		return 0, configErrorf("command table: missing single_shot/%s", rep.key())
	}
	return w, nil
}

// periodic resolves the mode entry word for a rate and repeatability.
func (t *CommandTable) periodic(rate SampleRate, rep Repeatability) (CommandWord, error) {
	w, ok := t.Periodic[rate.key()][rep.key()]
	if !ok {
		return 0, configErrorf("command table: missing periodic/%s/%s", rate.key(), rep.key())
	}
	return w, nil
}
