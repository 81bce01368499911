package embed

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/s2eweb/s2eweb/internal/platform"
)

// PluginName is the inventory entry the detectors look for.
const PluginName = "Shockwave Flash"

const (
	probeHighVersion = 15
	probeLowVersion  = 3
	probePrefix      = "ShockwaveFlash.ShockwaveFlash."
)

type Detector interface {
	Detect(minVersion int) bool
}

// InventoryDetector inspects the host's plugin list.
type InventoryDetector struct {
	Inventory platform.Inventory
}

func (d InventoryDetector) Detect(minVersion int) bool {
	return InstalledVersion(d.Inventory) >= minVersion
}

// InstalledVersion returns the plugin's major version, or 0 when the plugin
// is missing or its description cannot be parsed.
func InstalledVersion(inv platform.Inventory) int {
	p, ok := inv.Lookup(PluginName)
	if !ok || p.Description == "" {
		slog.Debug("embed: plugin not in inventory", "plugin", PluginName)
		return 0
	}
	return ParseMajorVersion(p.Description)
}

// ParseMajorVersion extracts 10 from "Shockwave Flash 10.1 r53". The third
// word is the version; other layouts fall back to the first word that
// starts with a digit.
func ParseMajorVersion(description string) int {
	words := strings.Split(description, " ")
	candidate := ""
	if len(words) > 2 {
		candidate = words[2]
	}
	if !startsWithDigit(candidate) {
		candidate = ""
		for _, w := range words {
			if startsWithDigit(w) {
				candidate = w
				break
			}
		}
	}
	head, _, _ := strings.Cut(candidate, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		slog.Debug("embed: unparsable plugin description", "description", description)
		return 0
	}
	return n
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// ProbeDetector instantiates versioned object identifiers through a host
// bridge, newest first. Probe failures and panics count as "not installed".
// Any successful probe between 15 and 3 counts as detected; the minimum
// version is not consulted.
type ProbeDetector struct {
	Probe func(identifier string) bool
}

func (d ProbeDetector) Detect(int) bool {
	if d.Probe == nil {
		return false
	}
	for v := probeHighVersion; v >= probeLowVersion; v-- {
		if d.try(fmt.Sprintf("%s%d", probePrefix, v)) {
			return true
		}
	}
	return false
}

func (d ProbeDetector) try(identifier string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("embed: probe failed", "identifier", identifier, "panic", r)
			ok = false
		}
	}()
	return d.Probe(identifier)
}

// Unavailable is used on hosts with no way to inspect plugins.
type Unavailable struct{}

func (Unavailable) Detect(int) bool { return false }
