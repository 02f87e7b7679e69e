package flags

import (
	"testing"

	"github.com/easytier/easytier-service/pkg/config"
	flag "github.com/spf13/pflag"
	"gotest.tools/assert"
)

func TestLoadConfig(t *testing.T) {
	type testCase struct {
		name string
		args []string

		expectedBaseDir string
		expectedMirror  string
	}

	testCases := []testCase{
		{name: "defaults", expectedBaseDir: ".", expectedMirror: config.DefaultMirror},
		{name: "base dir", args: []string{"--base-dir", "/opt/easytier"}, expectedBaseDir: "/opt/easytier", expectedMirror: config.DefaultMirror},
		{name: "custom mirror", args: []string{"--mirror", "https://mirror.example.com"}, expectedBaseDir: ".", expectedMirror: "https://mirror.example.com"},
		{name: "no mirror", args: []string{"--mirror", "none"}, expectedBaseDir: ".", expectedMirror: ""},
	}

	for _, testCase := range testCases {
		flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
		globalFlags := SetGlobalFlags(flagSet)
		assert.NilError(t, flagSet.Parse(testCase.args), testCase.name)

		cfg, err := globalFlags.LoadConfig()
		assert.NilError(t, err, testCase.name)
		assert.Equal(t, testCase.expectedBaseDir, cfg.BaseDir, testCase.name)
		assert.Equal(t, testCase.expectedMirror, cfg.Mirror, testCase.name)
	}
}
