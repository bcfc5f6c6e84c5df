/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/hybridpic/FieldSolver"
	"github.com/notargets/hybridpic/InputParameters"
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/model_problems/HybridPIC"
	"github.com/notargets/hybridpic/parser"
	"github.com/notargets/hybridpic/utils"
)

var ErrNoIonDensity = errors.New("domain.ion_density_function(x,y,z) must be specified")

const exampleFile = `
########################################
Title: "Uniform plasma"
hybrid_pic_model:
  substeps: 10
  elec_temp: 10          # eV
  n0_ref: 1.e18
  gamma: 5/3
  plasma_resistivity(rho,J): "1.e-7"
domain:
  dimensionality: 3d
  n_cell: [16, 16, 16]
  prob_lo: [0, 0, 0]
  prob_hi: [1, 1, 1]
  boundary: [periodic, periodic, pec]
  dt: 1.e-9
  n_steps: 10
  ion_density_function(x,y,z): "1.e18"
  Bz_init_function(x,y,z): "1.e-3"
########################################
`

// HybridCmd represents the hybrid command
var HybridCmd = &cobra.Command{
	Use:   "hybrid",
	Short: "Run the hybrid-PIC field solver on a prescribed ion background",
	Long: `
Advances E and B with the hybrid-PIC field solver. The ion charge density and
current are prescribed by the domain section of the input file.

hybridpic hybrid -I params.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			icFile, _  = cmd.Flags().GetString("inputConditionsFile")
			steps, _   = cmd.Flags().GetInt("steps")
			prof, _    = cmd.Flags().GetString("profile")
			printIP, _ = cmd.Flags().GetBool("print")
			ip         *InputParameters.InputParameters
			hr         *HybridRun
		)
		if ip, err = readInput(icFile); err != nil {
			return
		}
		switch strings.ToLower(prof) {
		case "":
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		default:
			return fmt.Errorf("unknown profile %q, use cpu or mem", prof)
		}
		if hr, err = NewHybridRun(ip, viper.GetInt("parallel"), logrus.StandardLogger()); err != nil {
			return
		}
		if printIP {
			hr.Params.Print()
		}
		if steps == 0 {
			steps = ip.Domain.NSteps
		}
		return hr.Run(steps)
	},
}

func init() {
	rootCmd.AddCommand(HybridCmd)
	HybridCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML or TOML file for input parameters")
	HybridCmd.Flags().IntP("steps", "s", 0, "number of coarse steps, overrides domain.n_steps")
	HybridCmd.Flags().String("profile", "", "write a cpu or mem profile to the current directory")
	HybridCmd.Flags().Bool("print", false, "print the resolved hybrid-PIC parameters")
}

// readInput parses a parameter file, TOML when the extension is .toml and
// YAML otherwise
func readInput(path string) (ip *InputParameters.InputParameters, err error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile), example:%s",
			exampleFile)
	}
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return
	}
	ip = &InputParameters.InputParameters{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = ip.ParseTOML(data)
	} else {
		err = ip.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return
}

// HybridRun is a single level hybrid-PIC field solve over a prescribed ion
// background: a time independent density and a current that may depend on t
type HybridRun struct {
	Params *InputParameters.HybridPICParameters
	Geom   *grid.Geometry
	Model  *HybridPIC.HybridPICModel
	Fields *HybridPIC.LevelFields
	Dt, T  float64
	Step   int

	decomp *grid.Decomposition
	ionJ   [3]func(args ...float64) float64
	log    logrus.FieldLogger
}

func NewHybridRun(ip *InputParameters.InputParameters, parallel int,
	log logrus.FieldLogger) (hr *HybridRun, err error) {
	var (
		dp  = ip.Domain
		fds *FieldSolver.FiniteDifferenceSolver
	)
	hr = &HybridRun{log: log}
	if hr.Params, err = ip.HybridPICParameters(); err != nil {
		return nil, err
	}
	if hr.Geom, err = dp.Geometry(); err != nil {
		return nil, err
	}
	if hr.Dt, err = dp.TimeStep(hr.Params.Constants); err != nil {
		return nil, err
	}
	if len(dp.IonDensity) == 0 {
		return nil, ErrNoIonDensity
	}
	if parallel == 0 {
		parallel = dp.ParallelDegree
	}
	hr.decomp = grid.NewDecomposition(parallel)
	if fds, err = FieldSolver.NewFiniteDifferenceSolver(hr.Geom, hr.decomp); err != nil {
		return nil, err
	}
	if hr.Model, err = HybridPIC.NewHybridPICModel(hr.Params, HybridPIC.WithLogger(log)); err != nil {
		return nil, err
	}
	ngrow := dp.NGrow
	if ngrow < 1 {
		ngrow = 1
	}
	var (
		ng     = grid.IntVect{ngrow, ngrow, ngrow}
		eT, bT = FieldSolver.YeeStaggering(hr.Geom.Dim)
	)
	hr.Fields = &HybridPIC.LevelFields{
		E:        grid.NewVectorField("Efield_fp_", hr.Geom, eT, ng),
		B:        grid.NewVectorField("Bfield_fp_", hr.Geom, bT, ng),
		J:        grid.NewVectorField("current_fp_", hr.Geom, eT, ng),
		Rho:      grid.NewField("rho_fp", hr.Geom, grid.Nodal, ng),
		Solver:   fds,
		Boundary: FieldSolver.NewFieldBoundary(hr.Geom),
	}
	if err = hr.Model.AllocateLevel(0, hr.Geom, hr.decomp, 1, ng, ng, eT[0], eT[1], eT[2], grid.Nodal); err != nil {
		return nil, err
	}

	constants := hr.Params.Constants
	for c, expr := range []string{dp.BxInit, dp.ByInit, dp.BzInit} {
		if err = hr.fill(hr.Fields.B[c], expr, constants, 1); err != nil {
			return nil, fmt.Errorf("domain B%s: %w", "xyz"[c:c+1], err)
		}
	}
	if err = hr.fill(hr.Fields.Rho, dp.IonDensity, constants, utils.QE); err != nil {
		return nil, fmt.Errorf("domain ion density: %w", err)
	}
	for c, expr := range []string{dp.IonJx, dp.IonJy, dp.IonJz} {
		var p *parser.Parser
		if p, err = parser.MakeParser(expr, constants, "x", "y", "z", "t"); err != nil {
			return nil, fmt.Errorf("domain ion J%s: %w", "xyz"[c:c+1], err)
		}
		hr.ionJ[c] = p.Compile()
	}
	hr.fillIonCurrent(0)

	if err = hr.Model.InitData([]*HybridPIC.LevelFields{hr.Fields}, 0); err != nil {
		return nil, err
	}
	if err = hr.Model.SetIonHistory(0, hr.Fields); err != nil {
		return nil, err
	}
	return
}

// fill sets the valid points of f to scale*expr(x, y, z) and refreshes its
// ghosts
func (hr *HybridRun) fill(f *grid.Field, expr string, constants map[string]float64, scale float64) (err error) {
	var p *parser.Parser
	if p, err = parser.MakeParser(expr, constants, "x", "y", "z"); err != nil {
		return
	}
	fn := p.Compile()
	hr.decomp.ForField(f, false, func(i, j, k int) {
		x, y, z := hr.Geom.Position(i, j, k, f.IxType)
		f.Set(i, j, k, scale*fn(x, y, z))
	})
	hr.Fields.Boundary.FillBoundary(f)
	return
}

func (hr *HybridRun) fillIonCurrent(t float64) {
	for c := 0; c < 3; c++ {
		var (
			f  = hr.Fields.J[c]
			fn = hr.ionJ[c]
		)
		hr.decomp.ForField(f, false, func(i, j, k int) {
			x, y, z := hr.Geom.Position(i, j, k, f.IxType)
			f.Set(i, j, k, fn(x, y, z, t))
		})
	}
	hr.Fields.Boundary.FillBoundary(hr.Fields.J[:]...)
}

// Advance runs one coarse step. The ion current handed to the field solver is
// the one at the middle of the step
func (hr *HybridRun) Advance() (err error) {
	hr.fillIonCurrent(hr.T + 0.5*hr.Dt)
	if err = hr.Model.EvolveFields(0, hr.Fields, hr.T, hr.Dt); err != nil {
		return fmt.Errorf("step %d: %w", hr.Step, err)
	}
	hr.T += hr.Dt
	hr.Step++
	return
}

func (hr *HybridRun) Run(steps int) (err error) {
	for n := 0; n < steps; n++ {
		if err = hr.Advance(); err != nil {
			return
		}
		fields := logrus.Fields{"step": hr.Step, "t": hr.T}
		for c, name := range []string{"x", "y", "z"} {
			fields["|B"+name+"|"] = hr.Fields.B[c].Norm()
			fields["|E"+name+"|"] = hr.Fields.E[c].Norm()
		}
		hr.log.WithFields(fields).Info("coarse step")
		if utils.NotFinite(hr.Fields.B[0].Data, hr.Fields.B[1].Data, hr.Fields.B[2].Data) {
			return fmt.Errorf("step %d: B is not finite, reduce dt or increase substeps", hr.Step)
		}
	}
	hr.log.WithField("memory", utils.GetMemUsage()).Debug("run complete")
	return
}
