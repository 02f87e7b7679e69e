package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/easytier/easytier-service/cmd/flags"
	"github.com/easytier/easytier-service/pkg/platform"
	"github.com/easytier/easytier-service/pkg/toolset"
	"github.com/loft-sh/log"
	"github.com/pkg/errors"
)

func newManager(globalFlags *flags.GlobalFlags) (*toolset.Manager, error) {
	cfg, err := globalFlags.LoadConfig()
	if err != nil {
		return nil, err
	}

	return toolset.NewManagerFromConfig(cfg, platform.Current(), log.Default)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}

	fmt.Println(string(out))
	return nil
}
