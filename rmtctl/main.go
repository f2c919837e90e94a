package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fail(err.Error())
		os.Exit(1)
	}
}
