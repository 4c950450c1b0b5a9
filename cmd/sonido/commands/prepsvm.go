package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/tableio"
)

var prepSVMCmd = &cobra.Command{
	Use:   "prep-svm <files.txt>",
	Short: "Write a libsvm file from a listing of .reduced files",
	Long: `Write files.svm next to the listing with one libsvm line per .reduced
file. The class label is the first character of each file name, so
"4_theo_12.reduced" is class 4.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepSVM,
}

func runPrepSVM(cmd *cobra.Command, args []string) error {
	listing := args[0]
	files, err := tableio.ReadFileListing(listing)
	if err != nil {
		return err
	}

	outPath := tableio.ReplaceExt(listing, ".svm")
	if err := writeSVMFile(outPath, files); err != nil {
		return err
	}
	printPath(cmd.OutOrStdout(), outPath)
	return nil
}

func writeSVMFile(outPath string, files []string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	w := bufio.NewWriter(out)

	for _, f := range files {
		if ext := filepath.Ext(f); ext != ".reduced" {
			out.Close()
			return fmt.Errorf("expected a .reduced file, got %q (%s)", ext, f)
		}
		label, err := tableio.LabelFromStem(f)
		if err != nil {
			out.Close()
			return err
		}
		vec, err := tableio.LoadVector(f)
		if err != nil {
			out.Close()
			return err
		}
		if err := tableio.WriteSVM(w, label, vec); err != nil {
			out.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
