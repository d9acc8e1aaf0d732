package cli

import (
	"errors"
	"os"

	"github.com/julianstephens/studylit/internal/config"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if ctx.ConfigPath != "" {
		if _, err := os.Stat(ctx.ConfigPath); errors.Is(err, os.ErrNotExist) {
			if err := config.Save(ctx.ConfigPath, ctx.Config); err != nil {
				return err
			}
			ctx.printf("Wrote config to: %s\n", ctx.ConfigPath)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.printf("Initialized %s storage at: %s\n", ctx.Config.Storage.Type, ctx.Store.GetConfigPath())
	return nil
}
