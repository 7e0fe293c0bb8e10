package flightconfig_test

import (
	"fmt"

	"github.com/go-flightconfig/go-flightconfig"
)

// First, we define a parameter type: the motor loaded into a motor mount.
// Parameter types are ordinary structs; they only need the three capabilities
// of the Parameter interface.

type MotorSelection struct {
	Designation   string
	IgnitionDelay float64 // seconds after stage separation
}

// Clone returns an independent copy; ParameterSet relies on it whenever one
// configuration's state is duplicated into another.
func (m *MotorSelection) Clone() *MotorSelection {
	c := *m
	return &c
}

// Equals compares by value, so two independently-created selections of the
// same motor are interchangeable.
func (m *MotorSelection) Equals(o *MotorSelection) bool {
	return o != nil && *m == *o
}

// Update would recompute state derived from the surrounding component tree;
// a motor selection derives nothing, so there is nothing to do.
func (m *MotorSelection) Update() {}

// The String method keeps diagnostic dumps of the set readable.
func (m *MotorSelection) String() string {
	return fmt.Sprintf("%s (delay %.1fs)", m.Designation, m.IgnitionDelay)
}

// This example stores a different motor for two named flight configurations
// while every other configuration falls back to the default selection. The
// identifiers are parsed from fixed text only to keep the output
// deterministic; real documents mint them with NewConfigID.
func ExampleParameterSet() {
	sport, _ := flightconfig.ParseConfigID("a0000000-0000-4000-8000-000000000001")
	heavy, _ := flightconfig.ParseConfigID("b0000000-0000-4000-8000-000000000002")

	motors, err := flightconfig.NewParameterSet(&MotorSelection{Designation: "C6-3"})
	if err != nil {
		panic(err)
	}

	// Editing several entries at once inside Batch runs a single refresh pass
	// afterwards instead of one per mutation.
	motors.Batch(func() {
		motors.Set(sport, &MotorSelection{Designation: "D12-5"})
		motors.Set(heavy, &MotorSelection{Designation: "E30-7", IgnitionDelay: 1.5})
	})

	// A configuration without an override flies with the default motor.
	v, _ := motors.Get(flightconfig.NewConfigID())
	fmt.Printf("overrides: %d\n", motors.Size())
	fmt.Printf("unknown configuration flies with: %v\n", v)
	fmt.Print(motors.Describe())
	// Output:
	// overrides: 2
	// unknown configuration flies with: C6-3 (delay 0.0s)
	// ====== Dumping ParameterSet<*flightconfig_test.MotorSelection> (2 overrides)
	//     [a0000000    ]: D12-5 (delay 0.0s)
	//     [b0000000    ]: E30-7 (delay 1.5s)
}
