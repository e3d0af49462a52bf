package main

import (
	"os"

	"github.com/groc-prog/neo4j-ogm-sub000/cmd/neogm"
)

func main() {
	if err := neogm.Execute(); err != nil {
		os.Exit(1)
	}
}
