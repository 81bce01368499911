package platform

import (
	"strconv"
	"strings"

	"github.com/mssola/useragent"
)

type OSFamily string

const (
	OSUnknown OSFamily = "unknown"
	OSWindows OSFamily = "windows"
	OSMac     OSFamily = "mac"
	OSLinux   OSFamily = "linux"
)

// Capabilities describes the host browser as far as plugin embedding cares.
type Capabilities struct {
	ActiveXObjectModel bool
	OS                 OSFamily
}

// LegacyObjectModel reports whether embeds must use the <object> form. Mac
// builds of IE expose the ActiveX flag without supporting it.
func (c Capabilities) LegacyObjectModel() bool {
	return c.ActiveXObjectModel && c.OS != OSMac
}

func FromUserAgent(raw string) Capabilities {
	if raw == "" {
		return Capabilities{OS: OSUnknown}
	}
	ua := useragent.New(raw)

	caps := Capabilities{OS: classifyOS(ua)}
	name, version := ua.Browser()
	if name == "Internet Explorer" && majorVersion(version) <= 10 {
		caps.ActiveXObjectModel = true
	}
	return caps
}

func classifyOS(ua *useragent.UserAgent) OSFamily {
	osName := ua.OS()
	switch {
	case ua.Platform() == "Macintosh" || strings.Contains(osName, "Mac OS"):
		return OSMac
	case ua.Platform() == "Windows" || strings.HasPrefix(osName, "Windows"):
		return OSWindows
	case strings.Contains(osName, "Linux"):
		return OSLinux
	default:
		return OSUnknown
	}
}

func majorVersion(version string) int {
	head, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}

type Plugin struct {
	Name        string
	Description string
}

// Inventory is the host's plugin list. A nil Inventory means the host does
// not expose one.
type Inventory []Plugin

func (inv Inventory) Lookup(name string) (Plugin, bool) {
	for _, p := range inv {
		if p.Name == name {
			return p, true
		}
	}
	return Plugin{}, false
}
