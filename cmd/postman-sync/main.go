package main

import (
	"os"

	"github.com/hashicorp-forge/postman-sync/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
