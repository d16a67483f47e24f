package main

import "github.com/chrmrtns/safefonts/cmd"

func main() {
	cmd.Main()
}
