package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/face"
)

var importCmd = &cobra.Command{
	Use:   "import [manifest.csv]",
	Short: "Batch-enroll people from a CSV manifest",
	Long: `Enroll many people at once from a CSV manifest with the columns
name,document_id,photo_path. Relative photo paths are resolved against
the manifest's directory. Rows that fail (no face, duplicate, bad
photo) are reported at the end; the rest are enrolled.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", 4, "Number of photos to process in parallel")
}

// manifestRow is one entry of the import manifest.
type manifestRow struct {
	line       int
	name       string
	documentID string
	photoPath  string
}

// readManifest parses the CSV manifest. A header row is detected by
// its column names and skipped.
func readManifest(path string) ([]manifestRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	baseDir := filepath.Dir(path)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	var rows []manifestRow
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}

		photoPath := strings.TrimSpace(record[2])
		if !filepath.IsAbs(photoPath) {
			photoPath = filepath.Join(baseDir, photoPath)
		}
		rows = append(rows, manifestRow{
			line:       line,
			name:       strings.TrimSpace(record[0]),
			documentID: strings.TrimSpace(record[1]),
			photoPath:  photoPath,
		})
	}
	if len(rows) == 0 {
		return nil, errors.New("manifest contains no entries")
	}
	return rows, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")

	rows, err := readManifest(args[0])
	if err != nil {
		return err
	}

	s, err := buildStack(false)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Enrolling %d people from %s\n\n", len(rows), args[0])

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var enrolled, duplicates, noFace int
	var failures []string
	var mu sync.Mutex

	ctx := context.Background()
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, row := range rows {
		wg.Add(1)
		go func(row manifestRow) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			photo, err := os.ReadFile(row.photoPath)
			if err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("line %d (%s): %v", row.line, row.documentID, err))
				mu.Unlock()
				return
			}

			_, err = s.enroller.Enroll(ctx, row.name, row.documentID, photo)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				enrolled++
			case errors.Is(err, database.ErrDuplicateDocumentID):
				duplicates++
			case errors.Is(err, face.ErrNoFace):
				noFace++
				failures = append(failures, fmt.Sprintf("line %d (%s): no face in %s", row.line, row.documentID, row.photoPath))
			default:
				failures = append(failures, fmt.Sprintf("line %d (%s): %v", row.line, row.documentID, err))
			}
		}(row)
	}

	wg.Wait()
	fmt.Println()

	fmt.Printf("\nEnrolled:   %d\n", enrolled)
	fmt.Printf("Duplicates: %d (already enrolled, skipped)\n", duplicates)
	fmt.Printf("No face:    %d\n", noFace)
	fmt.Printf("Failed:     %d\n", len(failures)-noFace)
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
