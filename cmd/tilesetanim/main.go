package main

import (
	"io/ioutil"
	"log"
	"os"

	"github.com/nsmbw/tilesetanim"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newTool(c *cli.Context) *tilesetanim.Tool {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return tilesetanim.New(logger, c.Int("workers"))
}

func main() {
	app := cli.NewApp()

	app.Name = "tilesetanim"
	app.Usage = "Newer Wii tileset animations tool"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			EnvVars: []string{"TILESETANIM_VERBOSE"},
			Usage:   "increase verbosity",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"j"},
			EnvVars: []string{"TILESETANIM_WORKERS"},
			Value:   10,
			Usage:   "number of frames to convert in parallel",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "export",
			Aliases:     []string{"e"},
			Usage:       "Export animations",
			Description: "Writes every animation frame as a PNG. The output directory is cleared if it already exists and defaults to the tileset filename plus \"_anims\".",
			ArgsUsage:   "FILE [DIRECTORY]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := newTool(c).Export(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import",
			Aliases:     []string{"i"},
			Usage:       "Import animations, replacing all existing ones unless --add is specified",
			Description: "Encodes the frames in DIRECTORY into the tileset. The tileset is overwritten unless OUTPUT is given.",
			ArgsUsage:   "FILE DIRECTORY [OUTPUT]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "add",
					Usage: "don't delete existing animation data for other tiles in the tileset",
				},
				&cli.IntFlag{
					Name:  "pa",
					Usage: "tileset number 0-3 (default: infer from tileset filename)",
				},
				&cli.StringFlag{
					Name:  "prefix",
					Usage: "animation filename prefix, overriding the one in info.txt",
				},
				&cli.StringFlag{
					Name:  "case",
					Usage: "capitalization of animation filenames, \"lower\" or \"upper\", overriding the one in info.txt",
				},
				&cli.IntFlag{
					Name:    "colors",
					EnvVars: []string{"TILESETANIM_COLORS"},
					Usage:   "reduce each frame to at most this many colors",
				},
				&cli.BoolFlag{
					Name:  "resize",
					Usage: "scale frames that aren't 24x24",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts := tilesetanim.ImportOptions{
					Output:    c.Args().Get(2),
					Prefix:    c.String("prefix"),
					Case:      c.String("case"),
					Add:       c.Bool("add"),
					MaxColors: c.Int("colors"),
					Resize:    c.Bool("resize"),
				}
				if c.IsSet("pa") {
					pa := c.Int("pa")
					opts.Pa = &pa
				}

				if err := newTool(c).Import(c.Args().Get(0), c.Args().Get(1), opts); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "list",
			Aliases:   []string{"l"},
			Usage:     "List the contents of an archive",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := newTool(c).List(c.Args().First(), os.Stdout); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "unpack",
			Usage:     "Extract an archive into a directory",
			ArgsUsage: "FILE DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := newTool(c).Unpack(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "pack",
			Usage:     "Build an archive from a directory",
			ArgsUsage: "DIRECTORY FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := newTool(c).Pack(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
