// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht85

import (
	"fmt"
	"strings"
)

// StatusRegister is the sensor's 16-bit status word. Bit positions follow
// the datasheet numbering with bit 0 as the least significant bit of the
// transmitted value.
type StatusRegister uint16

const (
	// At least one pending alert.
	StatusAlertPending StatusRegister = 1 << 15
	StatusHeaterOn     StatusRegister = 1 << 13
	// RH tracking alert.
	StatusHumidityAlert StatusRegister = 1 << 11
	// T tracking alert.
	StatusTemperatureAlert StatusRegister = 1 << 10
	// A reset occurred since the last clear status command.
	StatusResetDetected StatusRegister = 1 << 4
	// The last command was not processed: invalid, or it failed the
	// integrated command checksum.
	StatusCommandFault StatusRegister = 1 << 1
	// The checksum of the last write transfer failed.
	StatusChecksumFault StatusRegister = 1 << 0
)

// DefaultStatus is the expected no-fault register value. The sensor powers
// up with the reset detected bit latched until the first clear status
// command. Firmware revisions disagree on the power-on default, so the
// value CheckStatus compares against is configurable through Opts.
const DefaultStatus = StatusResetDetected

var statusFlags = []struct {
	mask StatusRegister
	desc string
}{
	{StatusChecksumFault, "checksum of last write transfer failed"},
	{StatusCommandFault, "last command not processed"},
	{StatusResetDetected, "reset detected since last clear status"},
	{StatusTemperatureAlert, "temperature tracking alert"},
	{StatusHumidityAlert, "humidity tracking alert"},
	{StatusHeaterOn, "heater is on"},
	{StatusAlertPending, "at least one pending alert"},
}

// Flags returns a description for every named bit set in the register.
func (s StatusRegister) Flags() []string {
	var out []string
	for _, f := range statusFlags {
		if s&f.mask != 0 {
			out = append(out, f.desc)
		}
	}
	return out
}

func (s StatusRegister) String() string {
	if flags := s.Flags(); len(flags) > 0 {
		return fmt.Sprintf("0x%04x (%s)", uint16(s), strings.Join(flags, "; "))
	}
	return fmt.Sprintf("0x%04x", uint16(s))
}

// decodeStatus assembles the register from the two payload bytes of the
// status data word, most significant byte first.
func decodeStatus(word []byte) StatusRegister {
	return StatusRegister(word[0])<<8 | StatusRegister(word[1])
}
