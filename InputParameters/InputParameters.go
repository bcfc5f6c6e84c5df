package InputParameters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/spf13/cast"

	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/parser"
	"github.com/notargets/hybridpic/types"
)

// Value is a number in the input file. It may be written as a literal or as
// an expression of physical and user constants, and is empty when not given
type Value string

func (v *Value) set(data interface{}) (err error) {
	var s string
	if s, err = cast.ToStringE(data); err != nil {
		return
	}
	*v = Value(strings.TrimSpace(s))
	return
}

func (v *Value) UnmarshalJSON(b []byte) (err error) {
	var data interface{}
	if err = json.Unmarshal(b, &data); err != nil {
		return
	}
	if data == nil {
		*v = ""
		return
	}
	return v.set(data)
}

func (v Value) Given() bool { return len(v) != 0 }

// Float evaluates the value, returning def when it was not given
func (v Value) Float(constants map[string]float64, def float64) (f float64, err error) {
	if !v.Given() {
		return def, nil
	}
	return parser.EvalConstant(string(v), constants)
}

// Parameters obtained from the YAML or TOML input file
type InputParameters struct {
	Title     string           `json:"Title" toml:"Title"`
	HybridPIC HybridPICInput   `json:"hybrid_pic_model" toml:"hybrid_pic_model"`
	Domain    DomainParameters `json:"domain" toml:"domain"`
}

// HybridPICInput is the hybrid_pic_model section as written in the file
type HybridPICInput struct {
	Substeps               Value                  `json:"substeps" toml:"substeps"`
	Gamma                  Value                  `json:"gamma" toml:"gamma"`
	ElecTemp               Value                  `json:"elec_temp" toml:"elec_temp"`
	N0Ref                  Value                  `json:"n0_ref" toml:"n0_ref"`
	PlasmaResistivity      string                 `json:"-" toml:"-"` // plasma_resistivity(rho,J)
	NFloor                 Value                  `json:"n_floor" toml:"n_floor"`
	PlasmaHyperResistivity Value                  `json:"plasma_hyper_resistivity" toml:"plasma_hyper_resistivity"`
	JxExternal             string                 `json:"-" toml:"-"` // Jx_external_grid_function(x,y,z,t)
	JyExternal             string                 `json:"-" toml:"-"` // Jy_external_grid_function(x,y,z,t)
	JzExternal             string                 `json:"-" toml:"-"` // Jz_external_grid_function(x,y,z,t)
	BxExternal             string                 `json:"-" toml:"-"` // Bx_external_grid_function(x,y,z)
	ByExternal             string                 `json:"-" toml:"-"` // By_external_grid_function(x,y,z)
	BzExternal             string                 `json:"-" toml:"-"` // Bz_external_grid_function(x,y,z)
	BExternalInitStyle     string                 `json:"B_external_init_style" toml:"B_external_init_style"`
	ReadFieldsFromPath     string                 `json:"read_fields_from_path" toml:"read_fields_from_path"`
	MyConstants            map[string]interface{} `json:"my_constants" toml:"my_constants"`
	LensPeriod             Value                  `json:"repeated_plasma_lens_period" toml:"repeated_plasma_lens_period"`
	LensStarts             []float64              `json:"repeated_plasma_lens_starts" toml:"repeated_plasma_lens_starts"`
	LensLengths            []float64              `json:"repeated_plasma_lens_lengths" toml:"repeated_plasma_lens_lengths"`
	LensStrengthsB         []float64              `json:"repeated_plasma_lens_strengths_B" toml:"repeated_plasma_lens_strengths_B"`
}

// DomainParameters describe the demo problem run by the command line tool
type DomainParameters struct {
	Dimensionality string    `json:"dimensionality" toml:"dimensionality"`
	NCell          []int     `json:"n_cell" toml:"n_cell"`
	ProbLo         []float64 `json:"prob_lo" toml:"prob_lo"`
	ProbHi         []float64 `json:"prob_hi" toml:"prob_hi"`
	Boundary       []string  `json:"boundary" toml:"boundary"` // per dimension: periodic, pec or neumann
	NGrow          int       `json:"n_grow" toml:"n_grow"`
	Dt             Value     `json:"dt" toml:"dt"`
	NSteps         int       `json:"n_steps" toml:"n_steps"`
	ParallelDegree int       `json:"parallel_degree" toml:"parallel_degree"`
	IonDensity     string    `json:"-" toml:"-"` // ion_density_function(x,y,z)
	IonJx          string    `json:"-" toml:"-"` // ion_Jx_function(x,y,z,t)
	IonJy          string    `json:"-" toml:"-"` // ion_Jy_function(x,y,z,t)
	IonJz          string    `json:"-" toml:"-"` // ion_Jz_function(x,y,z,t)
	BxInit         string    `json:"-" toml:"-"` // Bx_init_function(x,y,z)
	ByInit         string    `json:"-" toml:"-"` // By_init_function(x,y,z)
	BzInit         string    `json:"-" toml:"-"` // Bz_init_function(x,y,z)
}

type (
	hybridPICInput   HybridPICInput
	domainParameters DomainParameters
)

// Function keys carry their argument list in the key name. A comma ends the
// name in a struct tag, so they are looked up by exact name
func (in *HybridPICInput) functionKeys() map[string]*string {
	return map[string]*string{
		"plasma_resistivity(rho,J)":          &in.PlasmaResistivity,
		"Jx_external_grid_function(x,y,z,t)": &in.JxExternal,
		"Jy_external_grid_function(x,y,z,t)": &in.JyExternal,
		"Jz_external_grid_function(x,y,z,t)": &in.JzExternal,
		"Bx_external_grid_function(x,y,z)":   &in.BxExternal,
		"By_external_grid_function(x,y,z)":   &in.ByExternal,
		"Bz_external_grid_function(x,y,z)":   &in.BzExternal,
	}
}

func (dp *DomainParameters) functionKeys() map[string]*string {
	return map[string]*string{
		"ion_density_function(x,y,z)": &dp.IonDensity,
		"ion_Jx_function(x,y,z,t)":    &dp.IonJx,
		"ion_Jy_function(x,y,z,t)":    &dp.IonJy,
		"ion_Jz_function(x,y,z,t)":    &dp.IonJz,
		"Bx_init_function(x,y,z)":     &dp.BxInit,
		"By_init_function(x,y,z)":     &dp.ByInit,
		"Bz_init_function(x,y,z)":     &dp.BzInit,
	}
}

func (in *HybridPICInput) UnmarshalJSON(b []byte) (err error) {
	var plain hybridPICInput
	if err = json.Unmarshal(b, &plain); err != nil {
		return
	}
	*in = HybridPICInput(plain)
	return readFunctionKeys(b, "hybrid_pic_model", in.functionKeys())
}

func (in *HybridPICInput) UnmarshalTOML(data interface{}) error { return unmarshalTOML(data, in) }

func (dp *DomainParameters) UnmarshalJSON(b []byte) (err error) {
	var plain domainParameters
	if err = json.Unmarshal(b, &plain); err != nil {
		return
	}
	*dp = DomainParameters(plain)
	return readFunctionKeys(b, "domain", dp.functionKeys())
}

func (dp *DomainParameters) UnmarshalTOML(data interface{}) error { return unmarshalTOML(data, dp) }

// unmarshalTOML decodes a TOML table through the JSON field tags so both file
// formats share one set of keys
func unmarshalTOML(data interface{}, dst json.Unmarshaler) (err error) {
	var b []byte
	if b, err = json.Marshal(data); err != nil {
		return
	}
	return dst.UnmarshalJSON(b)
}

func readFunctionKeys(b []byte, section string, keys map[string]*string) (err error) {
	var raw map[string]interface{}
	if err = json.Unmarshal(b, &raw); err != nil {
		return
	}
	for key, dst := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		var s string
		if s, err = cast.ToStringE(v); err != nil {
			return fmt.Errorf("%s.%s: %w", section, key, err)
		}
		*dst = strings.TrimSpace(s)
	}
	return
}

// RepeatedLens describes a periodic train of plasma lenses along z
type RepeatedLens struct {
	Period     float64
	Starts     []float64
	Lengths    []float64
	StrengthsB []float64
}

// HybridPICParameters are the resolved hybrid model parameters. Constants
// holds the builtin and user constants every expression is compiled with
type HybridPICParameters struct {
	Substeps               int
	Gamma                  float64
	ElecTemp               float64 // eV
	ElecTempGiven          bool
	N0Ref                  float64
	N0RefGiven             bool
	NFloor                 float64
	PlasmaResistivity      string
	PlasmaHyperResistivity float64
	JExternalGridFunction  [3]string
	BExternalGridFunction  [3]string
	BExternalInitStyle     string
	ReadFieldsFromPath     string
	Constants              map[string]float64
	Lens                   RepeatedLens
}

// NewHybridPICParameters returns the defaults used when a key is absent
func NewHybridPICParameters() *HybridPICParameters {
	return &HybridPICParameters{
		Substeps:          50,
		Gamma:             1,
		NFloor:            1,
		PlasmaResistivity: "0",
		Constants:         parser.BuiltinConstants(),
	}
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) ParseTOML(data []byte) (err error) {
	_, err = toml.Decode(string(data), ip)
	return
}

// HybridPICParameters resolves constants and expression valued numbers of the
// hybrid_pic_model section
func (ip *InputParameters) HybridPICParameters() (hp *HybridPICParameters, err error) {
	var (
		in   = ip.HybridPIC
		defs map[string]string
		user map[string]float64
	)
	hp = NewHybridPICParameters()
	if defs, err = cast.ToStringMapStringE(in.MyConstants); err != nil {
		return nil, fmt.Errorf("my_constants: %w", err)
	}
	if user, err = parser.ResolveConstants(defs); err != nil {
		return nil, fmt.Errorf("my_constants: %w", err)
	}
	for k, v := range user {
		hp.Constants[k] = v
	}
	substeps := float64(hp.Substeps)
	for _, p := range []struct {
		name string
		v    Value
		dst  *float64
	}{
		{"substeps", in.Substeps, &substeps},
		{"gamma", in.Gamma, &hp.Gamma},
		{"elec_temp", in.ElecTemp, &hp.ElecTemp},
		{"n0_ref", in.N0Ref, &hp.N0Ref},
		{"n_floor", in.NFloor, &hp.NFloor},
		{"plasma_hyper_resistivity", in.PlasmaHyperResistivity, &hp.PlasmaHyperResistivity},
		{"repeated_plasma_lens_period", in.LensPeriod, &hp.Lens.Period},
	} {
		if *p.dst, err = p.v.Float(hp.Constants, *p.dst); err != nil {
			return nil, fmt.Errorf("hybrid_pic_model.%s: %w", p.name, err)
		}
	}
	hp.Substeps = int(substeps)
	hp.ElecTempGiven = in.ElecTemp.Given()
	hp.N0RefGiven = in.N0Ref.Given()
	if len(in.PlasmaResistivity) != 0 {
		hp.PlasmaResistivity = in.PlasmaResistivity
	}
	hp.JExternalGridFunction = [3]string{in.JxExternal, in.JyExternal, in.JzExternal}
	hp.BExternalGridFunction = [3]string{in.BxExternal, in.ByExternal, in.BzExternal}
	hp.BExternalInitStyle = in.BExternalInitStyle
	hp.ReadFieldsFromPath = in.ReadFieldsFromPath
	hp.Lens.Starts = in.LensStarts
	hp.Lens.Lengths = in.LensLengths
	hp.Lens.StrengthsB = in.LensStrengthsB
	return
}

// Geometry builds the level 0 geometry of the demo domain
func (dp *DomainParameters) Geometry() (g *grid.Geometry, err error) {
	var (
		dim      types.Dimensionality
		nCell    grid.IntVect
		lo, hi   [3]float64
		periodic [3]bool
		bcs      [3]types.FieldBC
	)
	if dim, err = types.NewDimensionality(dp.Dimensionality); err != nil {
		return
	}
	sd := dim.SpaceDim()
	if len(dp.NCell) < sd || len(dp.ProbLo) < sd || len(dp.ProbHi) < sd {
		err = fmt.Errorf("domain: n_cell, prob_lo and prob_hi need %d entries for %s", sd, dim)
		return
	}
	for d := 0; d < sd; d++ {
		nCell[d], lo[d], hi[d] = dp.NCell[d], dp.ProbLo[d], dp.ProbHi[d]
		bcs[d] = types.BC_PEC
		if d < len(dp.Boundary) {
			var ok bool
			if bcs[d], ok = types.BCNameMap[strings.ToLower(dp.Boundary[d])]; !ok {
				err = fmt.Errorf("domain: unknown boundary %q", dp.Boundary[d])
				return
			}
		}
		periodic[d] = bcs[d] == types.BC_Periodic
	}
	if g, err = grid.NewGeometry(dim, nCell, lo, hi, periodic); err != nil {
		return
	}
	for d := 0; d < sd; d++ {
		if !periodic[d] {
			g.BC[d] = [2]types.FieldBC{bcs[d], bcs[d]}
		}
	}
	return
}

// TimeStep evaluates the coarse time step of the demo domain
func (dp *DomainParameters) TimeStep(constants map[string]float64) (dt float64, err error) {
	if dt, err = dp.Dt.Float(constants, 0); err != nil {
		return
	}
	if dt <= 0 {
		err = fmt.Errorf("domain: dt = %g must be positive", dt)
	}
	return
}

func (hp *HybridPICParameters) Print() {
	fmt.Printf("[%d]\t\t\t\t= Substeps\n", hp.Substeps)
	fmt.Printf("%8.5f\t\t= Gamma\n", hp.Gamma)
	fmt.Printf("%8.5g\t\t= Electron temperature [eV]\n", hp.ElecTemp)
	if hp.N0RefGiven {
		fmt.Printf("%8.5g\t\t= Reference density\n", hp.N0Ref)
	}
	fmt.Printf("%8.5g\t\t= Density floor\n", hp.NFloor)
	fmt.Printf("[%s]\t\t\t= Resistivity(rho,J)\n", hp.PlasmaResistivity)
	fmt.Printf("%8.5g\t\t= Hyper-resistivity\n", hp.PlasmaHyperResistivity)
	for n, c := range []string{"x", "y", "z"} {
		if len(hp.JExternalGridFunction[n]) != 0 {
			fmt.Printf("[%s]\t\t\t= J%s external\n", hp.JExternalGridFunction[n], c)
		}
	}
	fmt.Printf("[%s]\t\t\t= B external init style\n", hp.BExternalInitStyle)
	if len(hp.ReadFieldsFromPath) != 0 {
		fmt.Printf("[%s]\t= External fields path\n", hp.ReadFieldsFromPath)
	}
	keys := make([]string, 0, len(hp.Constants))
	for k := range hp.Constants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Constants[%s] = %v\n", key, hp.Constants[key])
	}
}
