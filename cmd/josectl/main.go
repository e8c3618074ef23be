package main

import (
	"os"

	"github.com/commune-sh/matrix-authentication-service/cmd/josectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
