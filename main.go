package main

import (
	"os"

	"github.com/ejosa-pasquale/HoreCa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
