package metrics

import (
	"math"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// Energy reports the mean total energy over the observed frames.
type Energy struct {
	name        string
	ham         dynamo.Hamiltonian
	samples     int
	totalEnergy float64
}

func NewEnergy(ham dynamo.Hamiltonian) *Energy {
	return &Energy{
		name: "energy",
		ham:  ham,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(_ float64, x dynamo.State) {
	e.totalEnergy += e.ham.Energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift reports the largest relative deviation of the total energy
// from its value at the first observed frame. Systems without an energy
// function report 0.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	dyn           dynamo.System
}

func NewEnergyDrift(dyn dynamo.System) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		dyn:  dyn,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ float64, x dynamo.State) {
	ec, ok := e.dyn.(dynamo.Hamiltonian)
	if !ok {
		return
	}

	energy := ec.Energy(x)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
