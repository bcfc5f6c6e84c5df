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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/hybridpic/InputParameters"
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/parser"
	"github.com/notargets/hybridpic/readfiles"
	"github.com/notargets/hybridpic/types"
)

// SnapshotCmd represents the snapshot command
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the analytic external B field to a snapshot file",
	Long: `
Evaluates hybrid_pic_model.B[xyz]_external_grid_function(x,y,z) at the nodes of
the domain and writes a field snapshot that can be read back with
B_external_init_style = read_from_file.

hybridpic snapshot -I params.yaml -o bfield.nc`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			icFile, _ = cmd.Flags().GetString("inputConditionsFile")
			out, _    = cmd.Flags().GetString("output")
			ip        *InputParameters.InputParameters
			snap      *readfiles.FieldSnapshot
		)
		if ip, err = readInput(icFile); err != nil {
			return
		}
		if snap, err = BuildSnapshot(ip); err != nil {
			return
		}
		if err = readfiles.WriteSnapshot(out, snap); err != nil {
			return
		}
		logrus.WithFields(logrus.Fields{"file": out, "geometry": snap.Geometry, "extent": snap.Extent}).
			Info("wrote B snapshot")
		return
	},
}

func init() {
	rootCmd.AddCommand(SnapshotCmd)
	SnapshotCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML or TOML file for input parameters")
	SnapshotCmd.Flags().StringP("output", "o", "bfield.nc", "snapshot file to write")
}

// BuildSnapshot samples the analytic external B on the nodes of the domain.
// RZ domains are written as mode 0 thetaMode data with components (r, t, z)
func BuildSnapshot(ip *InputParameters.InputParameters) (snap *readfiles.FieldSnapshot, err error) {
	var (
		hp   *InputParameters.HybridPICParameters
		geom *grid.Geometry
	)
	if hp, err = ip.HybridPICParameters(); err != nil {
		return
	}
	if geom, err = ip.Domain.Geometry(); err != nil {
		return
	}
	snap = &readfiles.FieldSnapshot{
		Name:       "B",
		DataOrder:  "C",
		Components: map[string][]float64{},
	}
	sd := geom.SpaceDim()
	switch geom.Dim {
	case types.Dim1DZ:
		return nil, readfiles.ErrOneDimensional
	case types.Dim3D:
		snap.Geometry, snap.AxisLabels = readfiles.GeomCartesian, []string{"x", "y", "z"}
	case types.DimXZ:
		snap.Geometry, snap.AxisLabels = readfiles.GeomCartesian, []string{"x", "z"}
	case types.DimRZ:
		snap.Geometry, snap.AxisLabels = readfiles.GeomThetaMode, []string{"r", "z"}
		snap.Extent = append(snap.Extent, 1)
	}
	bx := geom.ValidBox(grid.Nodal)
	for d := 0; d < sd; d++ {
		snap.Offset = append(snap.Offset, geom.ProbLo[d])
		snap.Spacing = append(snap.Spacing, geom.CellSize[d])
		snap.Extent = append(snap.Extent, bx.Size(d))
	}
	for c := 0; c < 3; c++ {
		var p *parser.Parser
		if p, err = parser.MakeParser(hp.BExternalGridFunction[c], hp.Constants, "x", "y", "z"); err != nil {
			return nil, fmt.Errorf("B%s external: %w", "xyz"[c:c+1], err)
		}
		var (
			fn   = p.Compile()
			data = make([]float64, 0, bx.NumPts())
		)
		// C order: the last logical dimension varies fastest
		for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
			for j := bx.Lo[1]; j <= bx.Hi[1]; j++ {
				for k := bx.Lo[2]; k <= bx.Hi[2]; k++ {
					x, y, z := geom.Position(i, j, k, grid.Nodal)
					data = append(data, fn(x, y, z))
				}
			}
		}
		snap.Components[snap.ComponentLabel(c)] = data
	}
	return
}
