package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/chrmrtns/safefonts/biz/schema"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "migrate database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "[-s] migrate database up",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "step", Aliases: []string{"s"}, Usage: "migrate one version only"},
				},
				Action: func(c *cli.Context) error {
					return withMigrator(func(x *schema.Migrator) error {
						if c.Bool("step") {
							return x.Steps(1)
						}
						return x.Up()
					})
				},
			},
			{
				Name:  "down",
				Usage: "[-s] migrate database down",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "step", Aliases: []string{"s"}, Usage: "migrate one version only"},
				},
				Action: func(c *cli.Context) error {
					return withMigrator(func(x *schema.Migrator) error {
						if c.Bool("step") {
							return x.Steps(-1)
						}
						return x.Down()
					})
				},
			},
			{
				Name:  "status",
				Usage: "show database schema version",
				Action: func(c *cli.Context) error {
					return withMigrator(nil)
				},
			},
			{
				Name:  "force",
				Usage: "-v <version> force database to a specific version",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "version", Aliases: []string{"v"}, Usage: "the version to force", Required: true},
				},
				Action: func(c *cli.Context) error {
					return withMigrator(func(x *schema.Migrator) error {
						return x.Force(c.Int("version"))
					})
				},
			},
		},
	}
}

// withMigrator 执行 fn 后打印当前版本; fn 为 nil 时只打印
func withMigrator(fn func(x *schema.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	x, err := schema.Open(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return err
	}
	defer x.Close()

	if fn != nil {
		if err := fn(x); err != nil {
			return err
		}
		fmt.Println("迁移成功")
	}

	version, dirty, err := x.Status()
	if err != nil {
		return err
	}
	emoji := "✅"
	if dirty {
		emoji = "🚫"
	}
	fmt.Printf("当前数据库版本: %d, 检查未完成的迁移: %s\n", version, emoji)
	return nil
}
