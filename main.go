package main

import (
	"github.com/lyricnext/lyricserver/cmd"
)

func main() {
	cmd.Execute()
}
