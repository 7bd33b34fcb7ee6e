// Package industry defines the closed set of supported process industries.
// Dispatch over this set is exhaustive: adding an industry is a compile-time
// extension, not a registry lookup.
package industry

import "fmt"

// Industry identifies the regulated process family a job belongs to.
type Industry string

const (
	// Powder is powder-coat cure: hold above a conservative threshold.
	Powder Industry = "powder"
	// Autoclave is steam sterilization: Fo lethality integral plus pressure band.
	Autoclave Industry = "autoclave"
	// HACCP is two-phase food cooling (135→70→41 °F windows).
	HACCP Industry = "haccp"
	// ColdChain is cold-storage band compliance with excursion tracking.
	ColdChain Industry = "coldchain"
	// Concrete is initial-window curing: temperature and humidity together.
	Concrete Industry = "concrete"
	// Sterile is dry-heat sterilization: a single hold, no hysteresis.
	Sterile Industry = "sterile"
)

// All lists every supported industry in canonical order.
func All() []Industry {
	return []Industry{Powder, Autoclave, HACCP, ColdChain, Concrete, Sterile}
}

// Parse converts a user-supplied tag into an Industry.
func Parse(s string) (Industry, error) {
	switch Industry(s) {
	case Powder, Autoclave, HACCP, ColdChain, Concrete, Sterile:
		return Industry(s), nil
	}
	return "", fmt.Errorf("industry: unknown tag %q (want one of %v)", s, All())
}

// Valid reports whether i is a member of the closed set.
func (i Industry) Valid() bool {
	_, err := Parse(string(i))
	return err == nil
}

func (i Industry) String() string { return string(i) }
