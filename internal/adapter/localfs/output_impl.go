package localfs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
)

const (
	PartFileName    = "part-00000.csv"
	SuccessFileName = "_SUCCESS"
)

// OutputRepoImpl writes each hour as a directory holding one CSV part file
// and a _SUCCESS marker.
type OutputRepoImpl struct {
	outputDir string
}

func NewOutputRepo(outputDir string) *OutputRepoImpl {
	return &OutputRepoImpl{outputDir: outputDir}
}

func (r *OutputRepoImpl) Path(w entity.HourWindow) string {
	return w.OutputPath(r.outputDir)
}

func (r *OutputRepoImpl) Exists(w entity.HourWindow) (bool, error) {
	_, err := os.Stat(r.Path(w))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Write creates Path(w) and fills it. The check and the write are not atomic
// across processes; two runs for the same hour started together can still
// interleave.
func (r *OutputRepoImpl) Write(ctx context.Context, w entity.HourWindow, rows []entity.RankedRow) ([]string, error) {
	dir := r.Path(w)
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", repository.ErrOutputExists, dir)
		}
		return nil, err
	}

	files, err := writeParts(ctx, dir, rows)
	if err != nil {
		// A partial directory would make Exists report the hour as done.
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return nil, errors.Join(err, fmt.Errorf("remove partial output %s: %w", dir, rmErr))
		}
		return nil, err
	}
	return files, nil
}

func writeParts(ctx context.Context, dir string, rows []entity.RankedRow) ([]string, error) {
	part := filepath.Join(dir, PartFileName)
	if err := writeCSV(ctx, part, rows); err != nil {
		return nil, fmt.Errorf("write %s: %w", part, err)
	}

	success := filepath.Join(dir, SuccessFileName)
	if err := os.WriteFile(success, nil, 0o644); err != nil {
		return nil, err
	}
	return []string{part, success}, nil
}

func writeCSV(ctx context.Context, path string, rows []entity.RankedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	record := make([]string, 5)
	for i, row := range rows {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		record[0] = row.DomainCode
		record[1] = row.PageTitle
		record[2] = strconv.FormatInt(row.CountViews, 10)
		record[3] = strconv.FormatInt(row.TotalResponseSize, 10)
		record[4] = strconv.FormatInt(row.Rank, 10)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadOutput parses a part file written by Write.
func ReadOutput(path string) ([]entity.RankedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([]entity.RankedRow, 0, len(records))
	for _, rec := range records {
		if len(rec) != 5 {
			return nil, fmt.Errorf("%s: want 5 fields, got %d", path, len(rec))
		}
		var row entity.RankedRow
		row.DomainCode, row.PageTitle = rec[0], rec[1]
		if row.CountViews, err = strconv.ParseInt(rec[2], 10, 64); err != nil {
			return nil, err
		}
		if row.TotalResponseSize, err = strconv.ParseInt(rec[3], 10, 64); err != nil {
			return nil, err
		}
		if row.Rank, err = strconv.ParseInt(rec[4], 10, 64); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
