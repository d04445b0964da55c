package main

import (
	"os"
	_ "time/tzdata"

	"github.com/stocklite/stocklite/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
