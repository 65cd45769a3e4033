package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Teleop TeleopCommand `command:"teleop" description:"Drive the simulated crane interactively"`
	Home   HomeCommand   `command:"home" description:"Run the homing sequence and exit"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Crane - coordinated two-axis motion control for a pivot arm and elevator"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
