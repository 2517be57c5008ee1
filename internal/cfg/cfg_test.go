package cfg_test

import (
	"strings"
	"testing"

	"rawmouse/internal/cfg"
)

func TestParseDefaults(t *testing.T) {
	profile, err := cfg.ParseProfile([]byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if profile.Window.Title != "rawmouse" {
		t.Fatalf("got title %q", profile.Window.Title)
	}
	if profile.Window.Geometry != nil {
		t.Fatal("expected no geometry override by default")
	}
	if !profile.X11.InvertDeltas {
		t.Fatal("X11 delta inversion should default to on")
	}
	if profile.Log.Level != "info" {
		t.Fatalf("got log level %q", profile.Log.Level)
	}
}

func TestParseGeometry(t *testing.T) {
	data := `
		[window]
		title = "demo"
		geometry = "300x300+400,400"
	`
	profile, err := cfg.ParseProfile([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	geo := profile.Window.Geometry
	if geo == nil {
		t.Fatal("geometry missing")
	}
	if geo.W != 300 || geo.H != 300 || geo.X != 400 || geo.Y != 400 {
		t.Fatalf("got %+v", *geo)
	}
}

func TestParseBadGeometry(t *testing.T) {
	data := `
		[window]
		geometry = "0x0+400,400"
	`
	if _, err := cfg.ParseProfile([]byte(data)); err == nil {
		t.Fatal("expected zero-sized geometry to be rejected")
	}
	data = `
		[window]
		geometry = "banana"
	`
	if _, err := cfg.ParseProfile([]byte(data)); err == nil {
		t.Fatal("expected malformed geometry to be rejected")
	}
}

func TestParseBadLogLevel(t *testing.T) {
	data := `
		[log]
		level = "loud"
	`
	_, err := cfg.ParseProfile([]byte(data))
	if err == nil {
		t.Fatal("expected invalid log level to be rejected")
	}
	if !strings.Contains(err.Error(), "log level") {
		t.Fatalf("unexpected error: %s", err)
	}
}

func TestParseInversionOverride(t *testing.T) {
	data := `
		[x11]
		invert_deltas = false
	`
	profile, err := cfg.ParseProfile([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if profile.X11.InvertDeltas {
		t.Fatal("inversion override not applied")
	}
}
