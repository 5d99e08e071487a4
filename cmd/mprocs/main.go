package main

import (
	"fmt"
	"os"

	"github.com/dcosson/mprocs-go/internal/applog"
	"github.com/dcosson/mprocs-go/internal/cmd"
)

func main() {
	defer applog.Close()
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
