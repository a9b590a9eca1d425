package logger

import (
	"fmt"
	"time"
)

// ANSI color codes. Most terminals honor these; redirected output just
// carries the escape bytes, which is acceptable for a local tool.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

func stamp() string {
	return time.Now().Format("15:04:05")
}

// Info prints an informational line with a subsystem tag.
func Info(tag, msg string) {
	fmt.Printf("%s%s%s %s[%s]%s %s\n", dim, stamp(), reset, blue, tag, reset, msg)
}

// Success prints a green success line.
func Success(tag, msg string) {
	fmt.Printf("%s%s%s %s[%s]%s %s\n", dim, stamp(), reset, green, tag, reset, msg)
}

// Warn prints a yellow warning line.
func Warn(tag, msg string) {
	fmt.Printf("%s%s%s %s[%s]%s %s\n", dim, stamp(), reset, yellow, tag, reset, msg)
}

// Error prints a red error line.
func Error(tag, msg string) {
	fmt.Printf("%s%s%s %s[%s]%s %s\n", dim, stamp(), reset, red, tag, reset, msg)
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%s", bold, cyan)
	fmt.Println(`  ___  ___  ___   ___     _ _     `)
	fmt.Println(` | __|/ __|/ __| | __|__ | (_)___ `)
	fmt.Println(` | _| \__ \ (_ | | _/ _ \| | / _ \`)
	fmt.Println(` |___||___/\___| |_|\___/|_|_\___/`)
	fmt.Printf("%s", reset)
	fmt.Printf(" %sESG portfolio optimiser%s %s%s%s\n\n", dim, reset, bold, version, reset)
}

// Server prints the listen address in a highlighted line.
func Server(addr string) {
	fmt.Printf("%s%s%s %s[Server]%s listening on %shttp://%s%s\n", dim, stamp(), reset, cyan, reset, bold, addr, reset)
}

// Section prints a visual separator for a named phase.
func Section(name string) {
	fmt.Printf("\n%s── %s ──%s\n", bold, name, reset)
}

// Stats prints a key/value pair, used for load summaries.
func Stats(key string, value interface{}) {
	fmt.Printf("    %s%-24s%s %v\n", dim, key, reset, value)
}
