package pipeline

import (
	"os"
	"regexp"
)

// AnvilPrivateKey is the first pre-funded account of a default anvil node.
const AnvilPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// envCheatcode matches mandatory env reads in a forge script. vm.envOr has a
// fallback and is deliberately not matched.
var envCheatcode = regexp.MustCompile(`vm\.env(?:Uint|Int|Address|String|Bytes32|Bytes|Bool)\(\s*"([A-Za-z0-9_]+)"\s*\)`)

// RequiredParams lists the environment parameters a deploy script reads, in
// order of first appearance.
func RequiredParams(script string) []string {
	seen := make(map[string]bool)
	var params []string
	for _, match := range envCheatcode.FindAllStringSubmatch(script, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		params = append(params, name)
	}
	return params
}

// AutoParams are the values the engine can supply for a local test chain.
func AutoParams(rpcURL string) map[string]string {
	return map[string]string{
		"PRIVATE_KEY":          AnvilPrivateKey,
		"DEPLOYER_PRIVATE_KEY": AnvilPrivateKey,
		"RPC_URL":              rpcURL,
		"ETH_RPC_URL":          rpcURL,
	}
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// MissingParams returns the required parameters that are neither
// auto-suppliable nor set in the environment.
func MissingParams(required []string, auto map[string]string, lookup LookupFunc) []string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var missing []string
	for _, name := range required {
		if _, ok := auto[name]; ok {
			continue
		}
		if value, ok := lookup(name); ok && value != "" {
			continue
		}
		missing = append(missing, name)
	}
	return missing
}
