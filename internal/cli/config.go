package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lockscan/pkg/discover"
	"github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/report"
)

// config mirrors .lockscan.toml:
//
//	exclude = ["fixtures/**", "legacy/*/yarn.lock"]
//	formats = ["npm", "pnpm-lock.yaml"]
//	output = "inventory.json"
//	format = "json"
//	first_level_only = false
type config struct {
	Exclude        []string `toml:"exclude"`
	Formats        []string `toml:"formats"`
	Output         string   `toml:"output"`
	Format         string   `toml:"format"`
	FirstLevelOnly bool     `toml:"first_level_only"`
}

// loadConfig reads path. When path is empty, root/.lockscan.toml is used if
// it exists and an empty config is returned otherwise.
func loadConfig(path, root string) (config, string, error) {
	var cfg config

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, configFileName)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, "", nil
		}
		if os.IsNotExist(err) {
			return cfg, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, "", errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, path, nil
}

// discoverOptions validates the format names and exclude patterns.
func (c config) discoverOptions() (discover.Options, error) {
	opts := discover.Options{Exclude: c.Exclude}
	for _, name := range c.Formats {
		f, ok := lockfile.ParseFormat(strings.TrimSpace(name))
		if !ok {
			return opts, errors.New(errors.ErrCodeInvalidConfig, "unknown lockfile format %q", name)
		}
		opts.Formats = append(opts.Formats, f)
	}
	return opts, nil
}

func (c config) reportFormat() (report.Format, error) {
	return report.ParseFormat(c.Format)
}
