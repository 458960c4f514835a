// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht85

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"

	"github.com/sensorworks/sht85/common"
)

// Repeatability selects the sensor's internal averaging, trading
// measurement noise for conversion time and power.
type Repeatability int

const (
	RepeatabilityHigh Repeatability = iota
	RepeatabilityMedium
	RepeatabilityLow
)

// Conversion settle times by repeatability, from the datasheet. The sensor
// NACKs reads issued before the conversion has finished.
var settleTimes = map[Repeatability]time.Duration{
	RepeatabilityHigh:   16 * time.Millisecond,
	RepeatabilityMedium: 7 * time.Millisecond,
	RepeatabilityLow:    5 * time.Millisecond,
}

// Settle delay after mode entry and other control commands.
const controlSettle = 500 * time.Microsecond

func (r Repeatability) valid() bool {
	return r >= RepeatabilityHigh && r <= RepeatabilityLow
}

// key is the repeatability's command table key.
func (r Repeatability) key() string {
	switch r {
	case RepeatabilityHigh:
		return "high"
	case RepeatabilityMedium:
		return "medium"
	case RepeatabilityLow:
		return "low"
	}
	return ""
}

func (r Repeatability) String() string {
	if r.valid() {
		return r.key()
	}
	return fmt.Sprintf("repeatability(%d)", int(r))
}

// SampleRate is the measurement rate for periodic acquisition, in
// measurements per second.
type SampleRate int

const (
	// One sample every other second.
	RateHalfHertz SampleRate = iota
	RateHertz
	RateTwoHertz
	RateFourHertz
	Rate10Hertz
)

func (sr SampleRate) valid() bool {
	return sr >= RateHalfHertz && sr <= Rate10Hertz
}

// key is the rate's command table key.
func (sr SampleRate) key() string {
	switch sr {
	case RateHalfHertz:
		return "0.5"
	case RateHertz:
		return "1"
	case RateTwoHertz:
		return "2"
	case RateFourHertz:
		return "4"
	case Rate10Hertz:
		return "10"
	}
	return ""
}

// Interval returns the time between samples at this rate.
func (sr SampleRate) Interval() time.Duration {
	switch sr {
	case RateHalfHertz:
		return 2 * time.Second
	case RateHertz:
		return time.Second
	case RateTwoHertz:
		return 500 * time.Millisecond
	case RateFourHertz:
		return 250 * time.Millisecond
	case Rate10Hertz:
		return 100 * time.Millisecond
	}
	return 0
}

func (sr SampleRate) String() string {
	if sr.valid() {
		return sr.key() + "Hz"
	}
	return fmt.Sprintf("rate(%d)", int(sr))
}

// Mode is the sensor's operating mode, owned exclusively by the Dev and
// mutated only through its transition operations. Single shot acquisition
// is transient and never observed as a resting mode.
type Mode int

const (
	ModeIdle Mode = iota
	ModePeriodic
	ModeART
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePeriodic:
		return "periodic"
	case ModeART:
		return "art"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// The ART feature samples at a fixed 4Hz.
const artRate = RateFourHertz

// Bus numbers reserved on the reference platform. Open refuses them before
// the bus is touched; an adapter may declare further buses unavailable.
var reservedBuses = map[int]bool{0: true, 2: true}

// Opts holds the construction options. The zero value selects the built-in
// SHT85 command table, the address from the table, a discard logger and
// the DefaultStatus expectation.
type Opts struct {
	// Addr overrides the bus address supplied by the command table.
	Addr uint16
	// Table overrides the built-in command table. It is validated at
	// construction.
	Table *CommandTable
	// Logger receives fault and info events. The driver never hardcodes a
	// formatting or color scheme; that belongs to the sink.
	Logger logrus.FieldLogger
	// ExpectedStatus is the no-fault status register value CheckStatus
	// compares against. nil selects DefaultStatus.
	ExpectedStatus *StatusRegister
}

// Dev is the SHT85 protocol state machine. A Dev owns its bus handle for
// its lifetime and serializes its transactions: the bus is a shared,
// ordered, half-duplex resource and the underlying protocol has no abort,
// so every operation blocks for the transfer plus the mandated settle
// delay. Callers that need a timeout must bound the blocking read at the
// adapter layer.
type Dev struct {
	d             *i2c.Dev
	table         *CommandTable
	log           logrus.FieldLogger
	defaultStatus StatusRegister

	// Set when the Dev opened the bus itself and must release it on Close.
	closer i2c.BusCloser

	mu       sync.Mutex
	mode     Mode
	rate     SampleRate
	shutdown chan struct{}
	last     Reading
	haveLast bool

	// afterWrite runs after every successful command write.
	afterWrite func(w CommandWord)
}

// New returns a driver for a sensor on the given bus. opts may be nil.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	table := opts.Table
	if table == nil {
		table = DefaultCommandTable()
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	addr := opts.Addr
	if addr == 0 {
		addr = table.Address
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	status := DefaultStatus
	if opts.ExpectedStatus != nil {
		status = *opts.ExpectedStatus
	}
	dev := &Dev{
		d:             &i2c.Dev{Bus: bus, Addr: addr},
		table:         table,
		log:           log,
		defaultStatus: status,
	}
	dev.afterWrite = func(w CommandWord) {
		dev.log.Debugf("sht85: command 0x%04x done", uint16(w))
	}
	return dev, nil
}

// Open opens the named I2C bus through the host registry and returns a Dev
// owning the handle. Bus numbers 0 and 2 are reserved on the reference
// platform and are refused before any transaction. An empty ref selects
// the first available bus.
func Open(ref string, opts *Opts) (*Dev, error) {
	if n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(ref, "/dev/"), "i2c-")); err == nil && reservedBuses[n] {
		return nil, configErrorf("bus %d is reserved", n)
	}
	bus, err := i2creg.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("sht85: %w", err)
	}
	dev, err := New(bus, opts)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	dev.closer = bus
	return dev, nil
}

// writeCommand issues one command word and blocks for the settle delay the
// sensor needs before the next transaction. Callers hold the mutex.
func (dev *Dev) writeCommand(w CommandWord, settle time.Duration) error {
	if err := dev.d.Tx(w.bytes(), nil); err != nil {
		return fmt.Errorf("sht85: command 0x%04x: %w", uint16(w), err)
	}
	time.Sleep(settle)
	if dev.afterWrite != nil {
		dev.afterWrite(w)
	}
	return nil
}

// readFrame reads and decodes one 6-byte measurement frame. A checksum
// fault does not abort the read: the decoded values come back with their
// degraded flags set, alongside ErrChecksum. Callers hold the mutex.
func (dev *Dev) readFrame() (Reading, error) {
	frame := make([]byte, 6)
	if err := dev.d.Tx(nil, frame); err != nil {
		return Reading{}, fmt.Errorf("sht85: reading frame: %w", err)
	}
	r := decodeFrame(frame)
	dev.last = r
	dev.haveLast = true
	if r.Degraded() {
		dev.log.Warnf("sht85: checksum fault in measurement frame % x", frame)
		return r, ErrChecksum
	}
	return r, nil
}

// SingleShot performs one measurement at the given repeatability and
// returns the decoded Reading. Valid only while idle; the sensor returns
// to idle afterwards. On ErrChecksum the Reading is still populated, with
// the corrupted words flagged degraded.
func (dev *Dev) SingleShot(rep Repeatability) (Reading, error) {
	if !rep.valid() {
		return Reading{}, &InvalidParameterError{Param: "repeatability", Value: int(rep)}
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.mode != ModeIdle {
		return Reading{}, &UsageError{Op: "SingleShot", Mode: dev.mode}
	}
	w, err := dev.table.singleShot(rep)
	if err != nil {
		return Reading{}, err
	}
	if err := dev.writeCommand(w, settleTimes[rep]); err != nil {
		return Reading{}, err
	}
	return dev.readFrame()
}

// StartPeriodic begins autonomous sampling at the given rate until Stop is
// called. The sensor streams; poll with Fetch and ReadData.
func (dev *Dev) StartPeriodic(rate SampleRate, rep Repeatability) error {
	if !rate.valid() {
		return &InvalidParameterError{Param: "measurement rate", Value: int(rate)}
	}
	if !rep.valid() {
		return &InvalidParameterError{Param: "repeatability", Value: int(rep)}
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.mode != ModeIdle {
		return &UsageError{Op: "StartPeriodic", Mode: dev.mode}
	}
	w, err := dev.table.periodic(rate, rep)
	if err != nil {
		return err
	}
	dev.log.Debugf("sht85: starting periodic acquisition at %s with %s repeatability", rate, rep)
	if err := dev.writeCommand(w, controlSettle); err != nil {
		return err
	}
	dev.mode = ModePeriodic
	dev.rate = rate
	return nil
}

// StartART enables the Accelerated Response Time feature: fixed 4Hz
// sampling with faster thermal settling. Mutually exclusive with periodic
// mode.
func (dev *Dev) StartART() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.mode != ModeIdle {
		return &UsageError{Op: "StartART", Mode: dev.mode}
	}
	if err := dev.writeCommand(dev.table.ART, controlSettle); err != nil {
		return err
	}
	dev.mode = ModeART
	dev.rate = artRate
	return nil
}

// Fetch transmits the buffered measurement and clears the sensor's
// internal memory. Use before ReadData when polling accumulated samples.
func (dev *Dev) Fetch() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.mode != ModePeriodic && dev.mode != ModeART {
		return &UsageError{Op: "Fetch", Mode: dev.mode}
	}
	return dev.writeCommand(dev.table.Fetch, controlSettle)
}

// ReadData reads the current 6-byte frame while the sensor streams in
// periodic or ART mode. No command is re-issued.
func (dev *Dev) ReadData() (Reading, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.mode != ModePeriodic && dev.mode != ModeART {
		return Reading{}, &UsageError{Op: "ReadData", Mode: dev.mode}
	}
	return dev.readFrame()
}

// Stop halts periodic or ART sampling. Stop while idle is a no-op; it is
// always safe to call.
func (dev *Dev) Stop() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.stopLocked()
}

func (dev *Dev) stopLocked() error {
	if dev.mode == ModeIdle {
		return nil
	}
	if err := dev.writeCommand(dev.table.Stop, controlSettle); err != nil {
		return err
	}
	dev.mode = ModeIdle
	return nil
}

// SoftReset stops any running acquisition and resets the sensor, returning
// it to idle.
func (dev *Dev) SoftReset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.stopLocked(); err != nil {
		return err
	}
	dev.log.Debugf("sht85: applying soft reset")
	return dev.writeCommand(dev.table.SoftReset, controlSettle)
}

// ReadStatus reads and decodes the status register. The register is read
// on demand, never cached. On ErrChecksum the decoded value is still
// returned.
func (dev *Dev) ReadStatus() (StatusRegister, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeCommand(dev.table.Status, controlSettle); err != nil {
		return 0, err
	}
	word := make([]byte, common.WordLen)
	if err := dev.d.Tx(nil, word); err != nil {
		return 0, fmt.Errorf("sht85: reading status: %w", err)
	}
	status := decodeStatus(word)
	if !common.ValidWord(word) {
		dev.log.Warnf("sht85: checksum fault in status word % x", word)
		return status, ErrChecksum
	}
	return status, nil
}

// CheckStatus compares the status register against the expected no-fault
// value and returns the deviating bits. Every deviation is logged to the
// sink as a warning; none is fatal.
func (dev *Dev) CheckStatus() (StatusRegister, error) {
	status, err := dev.ReadStatus()
	if err != nil && !errors.Is(err, ErrChecksum) {
		return 0, err
	}
	diff := status ^ dev.defaultStatus
	for _, desc := range diff.Flags() {
		dev.log.Warnf("sht85: status register deviates from default: %s", desc)
	}
	return diff, err
}

// ClearStatus resets the latched fault bits in the status register.
func (dev *Dev) ClearStatus() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeCommand(dev.table.ClearStatus, controlSettle)
}

// SerialNumber returns the unique serial set at the factory. The 6-byte
// response carries two data words; the checksum bytes at offsets 2 and 5
// are excluded from the assembled value.
func (dev *Dev) SerialNumber() (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeCommand(dev.table.SerialNumber, controlSettle); err != nil {
		return 0, err
	}
	r := make([]byte, 6)
	if err := dev.d.Tx(nil, r); err != nil {
		return 0, fmt.Errorf("sht85: reading serial number: %w", err)
	}
	sn := uint32(r[0])<<24 | uint32(r[1])<<16 | uint32(r[3])<<8 | uint32(r[4])
	if !common.ValidWord(r[0:3]) || !common.ValidWord(r[3:6]) {
		dev.log.Warnf("sht85: checksum fault in serial number % x", r)
		return sn, ErrChecksum
	}
	return sn, nil
}

// EnableHeater turns on the integrated heater element, for operation in
// condensing environments. Valid in any mode; the operating mode is
// unchanged.
func (dev *Dev) EnableHeater() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.log.Warnf("sht85: enabling heater")
	return dev.writeCommand(dev.table.HeaterEnable, controlSettle)
}

// DisableHeater turns the heater element off.
func (dev *Dev) DisableHeater() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.writeCommand(dev.table.HeaterDisable, controlSettle)
}

// LastReading returns the most recent decoded Reading. Each successful
// decode supersedes the previous one; no history is kept. The second
// return is false until the first frame has been decoded.
func (dev *Dev) LastReading() (Reading, bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.last, dev.haveLast
}

// Mode returns the current operating mode.
func (dev *Dev) Mode() Mode {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.mode
}

// Rate returns the sampling rate of the running acquisition. Only
// meaningful in periodic or ART mode; ART samples at a fixed 4Hz.
func (dev *Dev) Rate() SampleRate {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.rate
}

// InterfaceReset recovers a wedged bus interface by toggling SDA for nine
// clock cycles, then sending the reset sequence. The sensor is idle
// afterwards.
func (dev *Dev) InterfaceReset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for i := 0; i < 9; i++ {
		if err := dev.d.Tx([]byte{0xff}, nil); err != nil {
			return fmt.Errorf("sht85: interface reset: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	for _, b := range []byte{0x35, 0x17} {
		if err := dev.d.Tx([]byte{b}, nil); err != nil {
			return fmt.Errorf("sht85: interface reset: %w", err)
		}
	}
	dev.mode = ModeIdle
	return nil
}

// Sense performs a single shot measurement at high repeatability and fills
// env. Implements physic.SenseEnv. On ErrChecksum env holds the degraded
// values.
func (dev *Dev) Sense(env *physic.Env) error {
	r, err := dev.SingleShot(RepeatabilityHigh)
	if err != nil && !errors.Is(err, ErrChecksum) {
		return err
	}
	r.env(env)
	return err
}

// SenseContinuous reads at the given interval until Halt is called and
// sends the output to the returned channel. Degraded frames are dropped.
// Implements physic.SenseEnv.
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("sht85: SenseContinuous already running")
	}
	if interval < settleTimes[RepeatabilityHigh] {
		return nil, errors.New("sht85: sample interval is < device sample rate")
	}
	dev.shutdown = make(chan struct{})
	ch := make(chan physic.Env, 16)
	go func(ch chan<- physic.Env) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-dev.shutdown:
				dev.mu.Lock()
				dev.shutdown = nil
				dev.mu.Unlock()
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := dev.Sense(&env); err == nil {
					ch <- env
				}
			}
		}
	}(ch)
	return ch, nil
}

// Precision returns the sensor resolution, 0.01 for both measurements.
// Implements physic.SenseEnv.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = physic.Kelvin / 100
	env.Humidity = physic.PercentRH / 100
	env.Pressure = 0
}

// Halt terminates a SenseContinuous operation and stops any running
// acquisition. Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		close(dev.shutdown)
	}
	return dev.stopLocked()
}

// Close halts sampling and releases the bus handle when the Dev owns it
// (the Open path). Safe to call on all exit paths.
func (dev *Dev) Close() error {
	err := dev.Halt()
	if dev.closer != nil {
		if cerr := dev.closer.Close(); err == nil {
			err = cerr
		}
		dev.closer = nil
	}
	return err
}

func (dev *Dev) String() string {
	return fmt.Sprintf("sht85: %s", dev.d.String())
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
