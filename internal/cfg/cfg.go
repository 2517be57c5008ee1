// Package cfg allows for reading the user's configuration.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/exp/slices"

	"rawmouse/internal/res"
)

var logLevels = []string{"error", "warn", "info", "debug", "verbose"}

// Window contains the capture window settings.
type Window struct {
	Title string `toml:"title"`

	// Optional. When absent, the platform default is used: 300x300 on
	// Windows, 200x200 on X11, both at (400,400).
	Geometry *Rectangle `toml:"geometry"`
}

// X11 contains settings that only apply to the X11 backend.
type X11 struct {
	// Whether to negate deltas, keeping the sign convention the X11 path has
	// always reported (previous minus current). Set to false to get natural
	// motion signs like the Windows path.
	InvertDeltas bool `toml:"invert_deltas"`
}

// Log contains the logger settings.
type Log struct {
	Level string `toml:"level"` // error, warn, info, debug, verbose
	Path  string `toml:"path"`  // Optional log file path
}

// Profile contains an entire configuration profile.
type Profile struct {
	Window Window `toml:"window"`
	X11    X11    `toml:"x11"`
	Log    Log    `toml:"log"`
}

// Rectangle is a window geometry, written as "WxH+X,Y".
type Rectangle struct {
	X, Y int
	W, H int
}

// GetDirectory returns the path to the user's configuration directory.
func GetDirectory() (string, error) {
	// UserConfigDir automatically checks for $XDG_CONFIG_HOME and falls back
	// to $HOME/.config, so we don't need to do any special checks ourselves.
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return dir + "/rawmouse/", nil
}

// GetProfilePath returns the path of the named configuration profile.
func GetProfilePath(name string) (string, error) {
	dir, err := GetDirectory()
	if err != nil {
		return "", fmt.Errorf("get config directory: %w", err)
	}
	return dir + name + ".toml", nil
}

// GetProfile returns a parsed configuration profile. A missing profile file
// is not an error; the defaults are returned instead.
func GetProfile(name string) (Profile, error) {
	path, err := GetProfilePath(name)
	if err != nil {
		return Profile{}, err
	}
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultProfile(), nil
		}
		return Profile{}, fmt.Errorf("read config file: %w", err)
	}
	return ParseProfile(file)
}

// ParseProfile parses and validates a configuration profile.
func ParseProfile(data []byte) (Profile, error) {
	profile := defaultProfile()
	if err := toml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse config file: %w", err)
	}
	if err := validateProfile(&profile); err != nil {
		return Profile{}, fmt.Errorf("validate config: %w", err)
	}
	return profile, nil
}

// MakeProfile makes a new configuration profile with the given name and the
// default settings.
func MakeProfile(name string) error {
	dir, err := GetDirectory()
	if err != nil {
		return fmt.Errorf("get config directory: %w", err)
	}
	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.Mkdir(dir, 0755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
		}
	} else if !stat.IsDir() {
		return fmt.Errorf("config directory (%s) is not a directory", dir)
	}
	return os.WriteFile(dir+name+".toml", res.DefaultConfig, 0644)
}

func defaultProfile() Profile {
	return Profile{
		Window: Window{Title: "rawmouse"},
		X11:    X11{InvertDeltas: true},
		Log:    Log{Level: "info"},
	}
}

// validateProfile ensures that the user's configuration profile does not have
// any illegal or invalid settings.
func validateProfile(conf *Profile) error {
	if conf.Window.Title == "" {
		conf.Window.Title = "rawmouse"
	}
	if !validateRectangle(conf.Window.Geometry) {
		return errors.New("invalid window geometry")
	}
	if !slices.Contains(logLevels, strings.ToLower(conf.Log.Level)) {
		return fmt.Errorf("invalid log level %q", conf.Log.Level)
	}
	return nil
}

// validateRectangle ensures the rectangle has a size.
func validateRectangle(r *Rectangle) bool {
	return r == nil || r.W > 0 && r.H > 0
}

// UnmarshalTOML implements toml.Unmarshaler.
func (r *Rectangle) UnmarshalTOML(value any) error {
	str, ok := value.(string)
	if !ok {
		return errors.New("geometry value was not a string")
	}
	n, err := fmt.Sscanf(str, "%dx%d+%d,%d", &r.W, &r.H, &r.X, &r.Y)
	if err != nil {
		return err
	}
	if n != 4 {
		return errors.New("missing geometry dimensions")
	}
	return nil
}
