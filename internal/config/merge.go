package config

import "github.com/BurntSushi/toml"

// DeepMerge merges override into base recursively. Override values win;
// nested tables are merged key by key. Neither input is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		baseTable, baseOK := result[k].(map[string]any)
		overTable, overOK := v.(map[string]any)
		if baseOK && overOK {
			result[k] = DeepMerge(baseTable, overTable)
			continue
		}
		result[k] = v
	}
	return result
}

// MergedRaw loads the global config and overlays the local raw config
// on top of it. Used by onboard, where local settings override global
// defaults.
func MergedRaw(localRaw map[string]any) map[string]any {
	global := readRawTOML(GlobalConfigFile())
	return DeepMerge(global, localRaw)
}

// LoadMerged returns the typed config with global defaults applied
// first and the local file decoded over them. Keys absent from the
// local file keep their global values.
func LoadMerged(localPath string) *Local {
	var cfg Local
	_, _ = toml.DecodeFile(GlobalConfigFile(), &cfg)
	_, _ = toml.DecodeFile(localPath, &cfg)
	return &cfg
}
