package platform

import "testing"

const (
	uaIE8     = "Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.1; Trident/4.0)"
	uaIE11    = "Mozilla/5.0 (Windows NT 10.0; WOW64; Trident/7.0; rv:11.0) like Gecko"
	uaFirefox = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"
	uaSafari  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15"
)

func TestFromUserAgent_OldInternetExplorerUsesObjectModel(t *testing.T) {
	caps := FromUserAgent(uaIE8)
	if !caps.ActiveXObjectModel {
		t.Fatal("expected ActiveX object model for IE8")
	}
	if caps.OS != OSWindows {
		t.Errorf("expected windows, got %s", caps.OS)
	}
	if !caps.LegacyObjectModel() {
		t.Error("expected legacy object model branch for IE8 on Windows")
	}
}

func TestFromUserAgent_ModernBrowsers(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		os   OSFamily
	}{
		{"IE11", uaIE11, OSWindows},
		{"Firefox", uaFirefox, OSLinux},
		{"Safari", uaSafari, OSMac},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := FromUserAgent(tt.ua)
			if caps.ActiveXObjectModel {
				t.Errorf("expected no ActiveX object model for %s", tt.name)
			}
			if caps.OS != tt.os {
				t.Errorf("expected OS %s, got %s", tt.os, caps.OS)
			}
			if caps.LegacyObjectModel() {
				t.Errorf("expected standard branch for %s", tt.name)
			}
		})
	}
}

func TestFromUserAgent_Empty(t *testing.T) {
	caps := FromUserAgent("")
	if caps.ActiveXObjectModel || caps.OS != OSUnknown {
		t.Errorf("expected zero capabilities, got %+v", caps)
	}
}

func TestLegacyObjectModel_MacNeverUsesObjectModel(t *testing.T) {
	caps := Capabilities{ActiveXObjectModel: true, OS: OSMac}
	if caps.LegacyObjectModel() {
		t.Error("expected mac hosts to use the standard branch even with the ActiveX flag")
	}
}

func TestInventoryLookup(t *testing.T) {
	inv := Inventory{
		{Name: "QuickTime Plug-in 7.7", Description: "QuickTime"},
		{Name: "Shockwave Flash", Description: "Shockwave Flash 10.1 r53"},
	}

	p, ok := inv.Lookup("Shockwave Flash")
	if !ok {
		t.Fatal("expected plugin to be found")
	}
	if p.Description != "Shockwave Flash 10.1 r53" {
		t.Errorf("unexpected description %q", p.Description)
	}

	if _, ok := inv.Lookup("Java"); ok {
		t.Error("expected missing plugin not to be found")
	}

	var none Inventory
	if _, ok := none.Lookup("Shockwave Flash"); ok {
		t.Error("expected nil inventory to find nothing")
	}
}
