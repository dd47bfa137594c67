// Command starschema builds the Namkin production warehouse from the machine
// event files and the material and part workbooks.
//
//	starschema validate --config configs/starschema.yaml
//	starschema run --config configs/starschema.yaml --every 24h
//	starschema listen
//	starschema timedim
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	// register every storage backend with the storage factory.
	_ "github.com/obenchekro/namkin-data-migration/internal/storage/all"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	if err := NewRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
