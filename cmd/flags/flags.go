package flags

import (
	"github.com/easytier/easytier-service/pkg/config"
	flag "github.com/spf13/pflag"
)

type GlobalFlags struct {
	Config  string
	BaseDir string
	Mirror  string

	Debug  bool
	Silent bool

	flags *flag.FlagSet
}

// SetGlobalFlags applies the global flags
func SetGlobalFlags(flags *flag.FlagSet) *GlobalFlags {
	globalFlags := &GlobalFlags{flags: flags}

	flags.StringVar(&globalFlags.Config, "config", "", "Path to a yaml config file")
	flags.StringVar(&globalFlags.BaseDir, "base-dir", "", "The folder that contains the easytier installation. Defaults to the working directory")
	flags.StringVar(&globalFlags.Mirror, "mirror", "", "Download mirror prefixed to release asset urls. Use 'none' to download directly")
	flags.BoolVar(&globalFlags.Debug, "debug", false, "Prints debug output")
	flags.BoolVar(&globalFlags.Silent, "silent", false, "Run in silent mode and prevents any log output except panics & fatals")
	return globalFlags
}

// LoadConfig loads the config file and applies the flags that were set on top
func (g *GlobalFlags) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}

	if g.flags.Changed("base-dir") {
		cfg.BaseDir = g.BaseDir
	}
	if g.flags.Changed("mirror") {
		cfg.Mirror = g.Mirror
	}

	return cfg, cfg.Validate()
}
