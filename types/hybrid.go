package types

import (
	"fmt"
	"strings"
)

// Dimensionality of the Yee mesh. Logical dimensions are packed from index 0:
// Dim1DZ uses index 0 for z, DimXZ and DimRZ use (0,1) for (x|r, z)
type Dimensionality uint8

const (
	Dim1DZ Dimensionality = iota
	DimXZ
	DimRZ
	Dim3D
)

var DimNameMap = map[string]Dimensionality{
	"1d":  Dim1DZ,
	"1dz": Dim1DZ,
	"z":   Dim1DZ,
	"xz":  DimXZ,
	"2d":  DimXZ,
	"rz":  DimRZ,
	"3d":  Dim3D,
	"xyz": Dim3D,
}

func (d Dimensionality) SpaceDim() int {
	switch d {
	case Dim1DZ:
		return 1
	case DimXZ, DimRZ:
		return 2
	default:
		return 3
	}
}

func (d Dimensionality) String() string {
	return [...]string{"1D_Z", "XZ", "RZ", "3D"}[d]
}

func NewDimensionality(label string) (d Dimensionality, err error) {
	var ok bool
	if d, ok = DimNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown dimensionality %q", label)
	}
	return
}

// FieldBC is the boundary applied to fields at a non-periodic domain face
type FieldBC uint8

const (
	BC_Periodic FieldBC = iota
	BC_PEC
	BC_Neumann
)

var BCNameMap = map[string]FieldBC{
	"periodic": BC_Periodic,
	"pec":      BC_PEC,
	"wall":     BC_PEC,
	"neumann":  BC_Neumann,
	"neuman":   BC_Neumann,
	"open":     BC_Neumann,
}

func (bc FieldBC) String() string {
	return [...]string{"periodic", "pec", "neumann"}[bc]
}

// DtType tags which charge density a sub-step uses
type DtType uint8

const (
	DtFull DtType = iota
	DtFirstHalf
	DtSecondHalf
)

func (dt DtType) String() string {
	return [...]string{"Full", "FirstHalf", "SecondHalf"}[dt]
}

// BInitStyle selects how the external magnetic field is sourced
type BInitStyle uint8

const (
	BInit_Default BInitStyle = iota
	BInit_Parser
	BInit_File
	BInit_RepeatedLens
)

var BInitNameMap = map[string]BInitStyle{
	"":                          BInit_Default,
	"default":                   BInit_Default,
	"parse_b_ext_grid_function": BInit_Parser,
	"read_from_file":            BInit_File,
	"repeated_plasma_lens":      BInit_RepeatedLens,
}

func (s BInitStyle) String() string {
	return [...]string{"default", "parse_b_ext_grid_function", "read_from_file",
		"repeated_plasma_lens"}[s]
}

func NewBInitStyle(label string) (s BInitStyle, err error) {
	var ok bool
	if s, ok = BInitNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown B_external_init_style %q", label)
	}
	return
}
