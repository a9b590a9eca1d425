package logger

import (
	"bytes"
	"os"
	"testing"
)

func TestLevels_NoPanic(t *testing.T) {
	// Redirect stdout so we don't spam the test output
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	Info("Universe", "message")
	Success("Prices", "message")
	Warn("Optimizer", "message")
	Error("DB", "message")

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	// Just ensure we didn't panic; output is environment-dependent (colors, etc.)
}

func TestBanner_NoPanic(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	Banner("v0.3.0")
	Banner("")

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
}

func TestSectionStatsServer_NoPanic(t *testing.T) {
	old := os.Stdout
	_, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	Section("Universe")
	Stats("tickers", 503)
	Server("127.0.0.1:8880")
	w.Close()
}
