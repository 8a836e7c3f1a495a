package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const FoundryConfigFile = "foundry.toml"

// FoundryProfile is the subset of a foundry.toml profile the engine reads.
type FoundryProfile struct {
	Src       string   `toml:"src"`
	Out       string   `toml:"out"`
	Script    string   `toml:"script"`
	Broadcast string   `toml:"broadcast"`
	Libs      []string `toml:"libs"`
}

type foundryConfig struct {
	Profile map[string]FoundryProfile `toml:"profile"`
}

// DefaultFoundryProfile mirrors forge's built-in directory names.
func DefaultFoundryProfile() FoundryProfile {
	return FoundryProfile{
		Src:       "src",
		Out:       "out",
		Script:    "script",
		Broadcast: "broadcast",
		Libs:      []string{"lib"},
	}
}

// ReadFoundryProfile reads the named profile from contractsDir/foundry.toml.
// Fields the named profile omits are inherited from [profile.default], then
// from forge's defaults.
func ReadFoundryProfile(contractsDir string, name string) (FoundryProfile, error) {
	profile := DefaultFoundryProfile()

	data, err := os.ReadFile(filepath.Join(contractsDir, FoundryConfigFile))
	if err != nil {
		return profile, fmt.Errorf("reading %s: %w", FoundryConfigFile, err)
	}

	var cfg foundryConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return profile, fmt.Errorf("parsing %s: %w", FoundryConfigFile, err)
	}

	profile = mergeProfile(profile, cfg.Profile["default"])
	if name != "" && name != "default" {
		profile = mergeProfile(profile, cfg.Profile[name])
	}
	return profile, nil
}

func mergeProfile(base, override FoundryProfile) FoundryProfile {
	if override.Src != "" {
		base.Src = override.Src
	}
	if override.Out != "" {
		base.Out = override.Out
	}
	if override.Script != "" {
		base.Script = override.Script
	}
	if override.Broadcast != "" {
		base.Broadcast = override.Broadcast
	}
	if len(override.Libs) > 0 {
		base.Libs = override.Libs
	}
	return base
}
