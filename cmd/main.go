// Package cmd safefonts 命令行入口
package cmd

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/chrmrtns/safefonts/biz"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func Main() {
	if err := newCLI().Run(os.Args); err != nil {
		logrus.WithError(err).Error("safefonts")
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "safefonts",
		Usage:   "self-hosted web font manager",
		Version: biz.Version,
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			upgradeCommand(),
			regenerateCommand(),
			importCommand(),
			inspectCommand(),
			purgeCommand(),
		},
		// 默认执行 serve
		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				fmt.Printf("\nerror args = %v\n\n", c.Args().Slice())
				return cli.ShowAppHelp(c)
			}
			return runServe(c.Context)
		},
	}
}

// printJSON 命令结果以缩进 JSON 输出到 stdout
func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
