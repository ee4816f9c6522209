//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles every executable into ./bin
func Build() error {
	mg.Deps(BuildDecoder, BuildMeasureAlgos)
	fmt.Println("Compilation finished")
	return nil
}

func BuildDecoder() error {
	fmt.Println("Building decoder executable...")
	return goCommand("build", "-o", "./bin/decoder", "./decoder").Run()
}

func BuildMeasureAlgos() error {
	fmt.Println("Building measureAlgos executable...")
	return goCommand("build", "-o", "./bin/measureAlgos", "./measureAlgos").Run()
}

// Test runs the unit tests, HDF5 must be reachable through CGO_CFLAGS and
// CGO_LDFLAGS
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...").Run()
}

// goCommand runs the go tool with cgo enabled and the HDF5 flags of the
// calling environment.
func goCommand(args ...string) *exec.Cmd {
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
		fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
