package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/chrmrtns/safefonts/biz/importer"
	"github.com/chrmrtns/safefonts/biz/schema"
	"github.com/chrmrtns/safefonts/pkg/env"
	"github.com/chrmrtns/safefonts/pkg/fontcheck"
	"github.com/chrmrtns/safefonts/pkg/fontinfo"
	"github.com/chrmrtns/safefonts/pkg/serve"
	"github.com/chrmrtns/safefonts/routes"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "upgrade data if needed, then start the admin HTTP server",
		Action: func(c *cli.Context) error {
			return runServe(ctxOf(c))
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return withApp(ctx, func(ctx context.Context, a *app) error {
		if _, err := a.prepare(ctx); err != nil {
			return err
		}

		opts := routes.Options{}
		if a.cfg.AssetDriver == "local" {
			opts.AssetDir = a.cfg.AssetDir
		}
		srv, err := serve.NewEchoServer(serve.Options{
			Host:      a.cfg.Host,
			Port:      a.cfg.Port,
			BodyLimit: a.cfg.BodyLimit,
			Debug:     env.IsDebug(),
			Dev:       env.IsDev(),
			RateLimit: a.cfg.RateLimit,
			IDs:       a.ids,
		}, routes.Init(a.fonts, opts))
		if err != nil {
			return err
		}
		return srv.Start(ctx)
	})
}

func upgradeCommand() *cli.Command {
	return &cli.Command{
		Name:  "upgrade",
		Usage: "migrate schema and run data upgrade steps",
		Action: func(c *cli.Context) error {
			return withApp(ctxOf(c), func(ctx context.Context, a *app) error {
				report, err := a.prepare(ctx)
				if report != nil {
					if perr := printJSON(report); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func regenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "regenerate",
		Usage: "rebuild fonts.css from the registry",
		Action: func(c *cli.Context) error {
			return withApp(ctxOf(c), func(ctx context.Context, a *app) error {
				if _, err := a.prepare(ctx); err != nil {
					return err
				}
				if err := a.fonts.Regenerate(ctx); err != nil {
					return err
				}
				url, err := a.fonts.StylesheetURL(ctx)
				if err != nil {
					return err
				}
				return printJSON(map[string]string{"url": url})
			})
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "-f <manifest.yaml> import fonts listed in a manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "manifest path", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withApp(ctxOf(c), func(ctx context.Context, a *app) error {
				if _, err := a.prepare(ctx); err != nil {
					return err
				}
				res, err := importer.New(a.fonts).ImportFile(ctx, c.String("file"))
				if err != nil {
					return err
				}
				if err := printJSON(res); err != nil {
					return err
				}
				if len(res.Failed) > 0 {
					return errors.Errorf("%d of %d entries failed", len(res.Failed), len(res.Failed)+len(res.Imported))
				}
				return nil
			})
		},
	}
}

// inspectCommand 只读取文件, 不需要数据库
func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "print family, weight and style of a ttf/otf file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.ShowSubcommandHelp(c)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			checker := fontcheck.New(int64(len(data))+1, fontcheck.DefaultExtensions)
			res, err := checker.CheckBytes(data, filepath.Base(path))
			if err != nil {
				return err
			}
			info, err := fontinfo.Inspect(data, res.Extension)
			if err != nil {
				return errors.Wrap(err, path)
			}
			return printJSON(info)
		},
	}
}

func purgeCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "[--force] delete all font files and drop the tables",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "purge even if delete_data_on_uninstall is off"},
		},
		Action: func(c *cli.Context) error {
			force := c.Bool("force")
			return withApp(ctxOf(c), func(ctx context.Context, a *app) error {
				if !force {
					set, err := a.fonts.LoadSettings(ctx)
					if err != nil {
						return errors.Wrap(err, "read settings (use --force to purge anyway)")
					}
					if !set.DeleteDataOnUninstall {
						return errors.New("delete_data_on_uninstall is off, nothing purged (use --force)")
					}
				}
				if err := a.fonts.Purge(ctx); err != nil {
					return err
				}
				if err := schema.Down(a.cfg.DBDriver, a.cfg.DBURL); err != nil {
					return err
				}
				xlog.Warn("font data purged")
				return printJSON(map[string]bool{"purged": true})
			})
		},
	}
}
