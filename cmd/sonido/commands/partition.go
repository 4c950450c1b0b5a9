package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/logging"
)

var partitionCmd = &cobra.Command{
	Use:   "partition <folder>",
	Short: "Split recordings into train_data and test_data",
	Long: `Copy every file of --source into <folder>/test_data when its name matches
--regex and into <folder>/train_data otherwise. Both directories must not
exist yet. A .gitignore ignoring everything is written into <folder>.

Example:
  sonido partition data --source free-spoken-digit-dataset/recordings`,
	Args: cobra.ExactArgs(1),
	RunE: runPartition,
}

var (
	partitionSource string
	partitionRegex  string
)

func init() {
	partitionCmd.Flags().StringVarP(&partitionSource, "source", "s", "free-spoken-digit-dataset/recordings", "directory of recordings")
	partitionCmd.Flags().StringVarP(&partitionRegex, "regex", "r", `4\d\.wav`, "regex selecting test files")
}

func runPartition(cmd *cobra.Command, args []string) error {
	pattern, err := regexp.Compile(partitionRegex)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}

	train, test, err := partition(args[0], partitionSource, pattern)
	if err != nil {
		return err
	}

	logging.Info("Partitioned recordings", logging.Fields{
		"source": partitionSource,
		"train":  train,
		"test":   test,
	})
	return nil
}

// partition copies the regular files of source into folder/train_data and
// folder/test_data and returns how many went to each.
func partition(folder, source string, testPattern *regexp.Regexp) (train, test int, err error) {
	trainDir := filepath.Join(folder, "train_data")
	testDir := filepath.Join(folder, "test_data")

	for _, dir := range []string{trainDir, testDir} {
		if _, err := os.Stat(dir); err == nil {
			return 0, 0, fmt.Errorf("%s already exists, delete it first", dir)
		}
	}
	for _, dir := range []string{trainDir, testDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, 0, err
		}
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		dst := trainDir
		if testPattern.MatchString(name) {
			dst = testDir
			test++
		} else {
			train++
		}
		if err := copyFile(filepath.Join(source, name), filepath.Join(dst, name)); err != nil {
			return train, test, err
		}
	}

	if err := os.WriteFile(filepath.Join(folder, ".gitignore"), []byte("*"), 0o644); err != nil {
		return train, test, err
	}
	return train, test, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
