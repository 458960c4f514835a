// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht85

import (
	"errors"
	"fmt"
)

// ErrChecksum reports a CRC mismatch on a data word received from the
// sensor. A checksum failure indicates transmission noise rather than
// sensor malfunction, so the decoded value is still returned, flagged as
// degraded, and the caller decides whether to retry or discard. Retry
// policy lives above this driver.
var ErrChecksum = errors.New("sht85: invalid crc")

// ConfigError is fatal at construction time: a missing command table entry,
// a reserved bus number, or an unset mandatory parameter. It is never
// returned once a Dev has been built.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return "sht85: " + e.msg
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// InvalidParameterError rejects an out-of-enum repeatability, measurement
// rate or heater state. No bus transaction is attempted.
type InvalidParameterError struct {
	Param string
	Value any
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("sht85: invalid %s: %v", e.Param, e.Value)
}

// UsageError reports an operation that is not valid in the current
// operating mode, for example ReadData while idle. The sensor would NACK
// or ignore the command depending on firmware state, so the driver rejects
// it without touching the bus.
type UsageError struct {
	Op   string
	Mode Mode
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("sht85: %s is not valid in mode %s", e.Op, e.Mode)
}
