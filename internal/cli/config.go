package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/julianstephens/studylit/internal/config"
	"github.com/julianstephens/studylit/internal/constants"
	"github.com/julianstephens/studylit/internal/keyring"
	"github.com/julianstephens/studylit/internal/storage/postgres"
)

type ConfigCmd struct {
	Init             ConfigInitCmd             `cmd:"" help:"Write a default config file."`
	Show             ConfigShowCmd             `cmd:"" help:"Print the effective configuration." default:"1"`
	SetConnection    ConfigSetConnectionCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
	DeleteConnection ConfigDeleteConnectionCmd `cmd:"" help:"Remove the PostgreSQL connection string from the OS keyring."`
}

type ConfigInitCmd struct{}

func (c *ConfigInitCmd) Run(ctx *Context) error {
	if _, err := config.Init(ctx.ConfigPath); err != nil {
		return err
	}
	ctx.printf("%s Wrote default config to %s\n", okStyle.Render("✓"), ctx.ConfigPath)
	return nil
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx *Context) error {
	ctx.printf("%s\n\n", mutedStyle.Render("# "+ctx.ConfigPath))
	m := &config.Manager{}
	return m.Write(ctx.out(), ctx.Config)
}

type ConfigSetConnectionCmd struct {
	ConnectionString string `arg:"" help:"Full PostgreSQL connection string, password included."`
}

func (c *ConfigSetConnectionCmd) Run(ctx *Context) error {
	// A password is expected here; anything else that fails validation is
	// a malformed string.
	if _, err := postgres.ValidateConnString(c.ConnectionString); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
		return err
	}
	if err := keyring.SetConnectionString(c.ConnectionString); err != nil {
		return err
	}
	ctx.printf("%s Connection string stored in the OS keyring\n", okStyle.Render("✓"))
	if ctx.Config != nil && ctx.Config.Storage.Type != "postgres" {
		ctx.printf("Set storage.type = \"postgres\" in %s to use it.\n", configFileName(ctx.ConfigPath))
	}
	return nil
}

type ConfigDeleteConnectionCmd struct{}

func (c *ConfigDeleteConnectionCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			ctx.println("No connection string stored.")
			return nil
		}
		return err
	}
	ctx.printf("%s Connection string removed from the OS keyring\n", okStyle.Render("✓"))
	return nil
}

func configFileName(path string) string {
	if path == "" {
		return fmt.Sprintf("%s/%s", constants.DefaultConfigDir, constants.DefaultConfigFile)
	}
	return filepath.Clean(path)
}
