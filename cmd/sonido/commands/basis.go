package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/basis"
	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/logging"
	"github.com/RyanBlaney/sonido-features/tableio"
)

var basisCmd = &cobra.Command{
	Use:   "basis <feats.txt>",
	Short: "Fit a PCA basis to a listing of .feat files",
	Long: `Fit a principal component basis to the features listed in feats.txt.

Writes feats.scree (eigenvalues, ascending), feats.basis (one eigenvector per
column) and feats.mean next to the listing and prints their paths.`,
	Args: cobra.ExactArgs(1),
	RunE: runBasis,
}

var reduceCmd = &cobra.Command{
	Use:   "reduce <feats.txt> <basis-stem> <dims>",
	Short: "Project .feat files onto the strongest basis components",
	Long: `Project every feature listed in feats.txt onto the dims components of
<basis-stem>.basis with the largest eigenvalues, after subtracting
<basis-stem>.mean. Each result is written next to its input with a
.reduced extension.

Example:
  sonido reduce test.txt feats 10`,
	Args: cobra.ExactArgs(3),
	RunE: runReduce,
}

func loadFlatFeatures(listing string) ([]string, [][]float64, error) {
	files, err := tableio.ReadFileListing(listing)
	if err != nil {
		return nil, nil, err
	}

	vectors := make([][]float64, len(files))
	for i, f := range files {
		m, err := tableio.LoadCSV(f, 0)
		if err != nil {
			return nil, nil, err
		}
		vectors[i] = features.FlattenMatrix(m)
	}
	return files, vectors, nil
}

func runBasis(cmd *cobra.Command, args []string) error {
	listing := args[0]
	files, vectors, err := loadFlatFeatures(listing)
	if err != nil {
		return err
	}

	b, err := basis.Fit(vectors)
	if err != nil {
		return err
	}

	stem := tableio.ReplaceExt(listing, "")
	if err := b.Save(stem); err != nil {
		return err
	}

	logging.Info("Basis fitted", logging.Fields{
		"features": len(files),
		"dims":     b.Dim(),
	})

	out := cmd.OutOrStdout()
	for _, ext := range []string{basis.ScreeExt, basis.BasisExt, basis.MeanExt} {
		printPath(out, stem+ext)
	}
	return nil
}

func runReduce(cmd *cobra.Command, args []string) error {
	dims, err := strconv.Atoi(args[2])
	if err != nil || dims <= 0 {
		return fmt.Errorf("dimensions (%s) must be a positive integer", args[2])
	}

	files, vectors, err := loadFlatFeatures(args[0])
	if err != nil {
		return err
	}

	b, err := basis.Load(args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, f := range files {
		reduced, err := b.Reduce(vectors[i], dims)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}

		reducedPath := tableio.ReplaceExt(f, ".reduced")
		if err := tableio.SaveColumn(reducedPath, reduced); err != nil {
			return err
		}
		printPath(out, reducedPath)
	}
	return nil
}
