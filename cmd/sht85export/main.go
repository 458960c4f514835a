// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sht85export polls an SHT85 sensor in periodic acquisition mode and
// exports the readings as Prometheus gauges.
package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"periph.io/x/host/v3"

	"github.com/sensorworks/sht85"
)

func main() {
	busRef := flag.String("bus", "1", "I2C bus reference (number or name, empty for the first available)")
	listen := flag.String("listen", ":9185", "Prometheus exporter address")
	repFlag := flag.String("rep", "high", "repeatability: high, medium or low")
	mps := flag.Float64("mps", 1, "measurements per second: 0.5, 1, 2, 4 or 10")
	tablePath := flag.String("table", "", "YAML command table override")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warning or error")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(colorable.NewColorableStderr())
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalln("parse log level:", err)
	}
	log.SetLevel(level)

	rep, ok := parseRepeatability(*repFlag)
	if !ok {
		log.Fatalf("invalid repeatability %q", *repFlag)
	}
	rate, ok := parseRate(*mps)
	if !ok {
		log.Fatalf("invalid measurement rate %v", *mps)
	}

	opts := &sht85.Opts{Logger: log}
	if *tablePath != "" {
		table, err := sht85.LoadCommandTable(*tablePath)
		if err != nil {
			log.Fatalln("load command table:", err)
		}
		opts.Table = table
	}

	if _, err := host.Init(); err != nil {
		log.Fatalln("init host:", err)
	}
	dev, err := sht85.Open(*busRef, opts)
	if err != nil {
		log.Fatalln("open sensor:", err)
	}
	defer dev.Close()

	if sn, err := dev.SerialNumber(); err == nil {
		log.Infof("sht85 serial number 0x%08x", sn)
	} else {
		log.Warnln("read serial number:", err)
	}
	if _, err := dev.CheckStatus(); err != nil {
		log.Warnln("check status:", err)
	}

	if err := dev.StartPeriodic(rate, rep); err != nil {
		log.Fatalln("start periodic acquisition:", err)
	}

	degraded := promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sensors",
		Subsystem: "sht85",
		Name:      "degraded_frames_total",
	})
	gauge := func(name string, value func(r sht85.Reading) float64) {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "sensors",
			Subsystem: "sht85",
			Name:      name,
		}, func() float64 {
			r, _ := dev.LastReading()
			return value(r)
		})
	}
	gauge("temperature_celsius", func(r sht85.Reading) float64 { return r.Temperature })
	gauge("humidity_percent", func(r sht85.Reading) float64 { return r.Humidity })
	gauge("dew_point_celsius", func(r sht85.Reading) float64 { return r.DewPoint })

	done := make(chan struct{})
	go poll(dev, rate.Interval(), degraded, log, done)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Infof("serving metrics on %s", *listen)
		if err := http.ListenAndServe(*listen, nil); err != nil {
			log.Fatalln("metrics listener:", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	close(done)
	if err := dev.Stop(); err != nil {
		log.Warnln("stop acquisition:", err)
	}
}

// poll fetches one buffered measurement per sample interval. Checksum
// faults are counted but the degraded values are still exported; the next
// intact frame supersedes them.
func poll(dev *sht85.Dev, interval time.Duration, degraded prometheus.Counter, log *logrus.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		if err := dev.Fetch(); err != nil {
			log.Debugln("fetch:", err)
			continue
		}
		r, err := dev.ReadData()
		if err != nil {
			if errors.Is(err, sht85.ErrChecksum) {
				degraded.Inc()
			} else {
				log.Warnln("read data:", err)
				continue
			}
		}
		log.Debugf("reading: %s", r)
	}
}

func parseRepeatability(s string) (sht85.Repeatability, bool) {
	switch s {
	case "high":
		return sht85.RepeatabilityHigh, true
	case "medium":
		return sht85.RepeatabilityMedium, true
	case "low":
		return sht85.RepeatabilityLow, true
	}
	return 0, false
}

func parseRate(mps float64) (sht85.SampleRate, bool) {
	switch mps {
	case 0.5:
		return sht85.RateHalfHertz, true
	case 1:
		return sht85.RateHertz, true
	case 2:
		return sht85.RateTwoHertz, true
	case 4:
		return sht85.RateFourHertz, true
	case 10:
		return sht85.Rate10Hertz, true
	}
	return 0, false
}
