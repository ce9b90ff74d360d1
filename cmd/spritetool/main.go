// spritetool renders tiled sprite sheets, colorizes outfits and serves
// previews over HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "sheet":
		err = cmdSheet(args)
	case "frame":
		err = cmdFrame(args)
	case "palette":
		err = cmdPalette(args)
	case "info":
		err = cmdInfo(args)
	case "serve":
		err = cmdServe(args)
	case "import":
		err = cmdImport(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`spritetool - tiled sprite sheet renderer

Usage:
  spritetool <command> [options] [manifest] <args>

Commands:
  sheet [options] [manifest] <thing-id>   Render the atlas of a thing
  frame [options] [manifest] <thing-id>   Render one tile-block of a thing
  palette [options]                       Write the outfit palette swatch
  info [options] [manifest] [thing-id]    Describe the manifest or one thing
  serve [options] [manifest]              Start the HTTP preview server
  import [options] [manifest] <sprite-id> <file.png>
                                          Store a 32x32 PNG as a sprite tile
  config [-o file] [-save]                Print or write the effective config

Common options:
  -config <file>    Config file (default ./spritetool.yaml)
  -outfit h,b,l,f[,addons]
  -bg #RRGGBB       Background colour
  -scale N          Integer upscale factor
  -outdir <dir>     Output directory
  -debug            Debug logging

When the manifest is omitted, data.manifest from the config is used.

Examples:
  spritetool sheet -outfit 94,82,88,0,3 things.yaml 128
  spritetool frame -x 2 -frame 1 -scale 4 -o walk.png things.yaml 128
  spritetool sheet -override 412=edited.png things.yaml 128
  spritetool palette -o palette.png
  spritetool serve -listen :8080 things.yaml`)
}
