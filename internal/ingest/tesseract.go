package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Tesseract TSV columns
const (
	tsvLevel  = 0
	tsvLeft   = 6
	tsvTop    = 7
	tsvWidth  = 8
	tsvHeight = 9
	tsvConf   = 10
	tsvText   = 11

	tsvColumns = 12
	levelPage  = 1
)

// ParseTSV reads one page of Tesseract TSV output into the builder's current
// page. Structural rows (confidence -1) separate lines: a run of them starts
// a new line once. When the page has no size yet, the page row provides it.
func ParseTSV(r io.Reader, b *Builder) error {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("unable to read tsv header: %w", err)
	}

	inLine := true
	line := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to read record from tsv: %w", err)
		}
		if len(record) < tsvColumns-1 {
			return fmt.Errorf("tsv record has %d columns, want %d", len(record), tsvColumns)
		}

		values, err := parseTSVNumbers(record)
		if err != nil {
			return err
		}
		left, top, width, height, conf := values[0], values[1], values[2], values[3], values[4]

		if conf == -1 {
			if level, _ := strconv.Atoi(record[tsvLevel]); level == levelPage && b.open {
				page := &b.pages[len(b.pages)-1]
				if page.Width == 0 && page.Height == 0 {
					b.SetPageSize(width, height)
				}
			}
			if inLine {
				line++
				inLine = false
			}
			continue
		}

		word := ""
		if len(record) > tsvText {
			word = strings.TrimSpace(record[tsvText])
		}
		if word == "" {
			continue
		}

		inLine = true
		box := boxFromXYWH(left, top, width, height)
		if err := b.AddWord(line, box, word); err != nil {
			return err
		}
	}
}

func parseTSVNumbers(record []string) ([5]float64, error) {
	var values [5]float64
	for i, col := range []int{tsvLeft, tsvTop, tsvWidth, tsvHeight, tsvConf} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return values, fmt.Errorf("unable to read record from tsv: column %d: %w", col, err)
		}
		values[i] = v
	}
	return values, nil
}

// LoadTesseractDir ingests a directory of per-page Tesseract output: each
// page is a NAME.tsv file, optionally next to a NAME.png (or other image)
// that supplies the page size and display image. Pages are ordered by name.
func LoadTesseractDir(dir string) (*Document, error) {
	tsvFiles, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return nil, fmt.Errorf("unable to list tsv files: %w", err)
	}
	if len(tsvFiles) == 0 {
		return nil, fmt.Errorf("no tsv files in %s", dir)
	}
	sort.Slice(tsvFiles, func(i, j int) bool {
		return naturalLess(filepath.Base(tsvFiles[i]), filepath.Base(tsvFiles[j]))
	})

	b := NewBuilder()
	for _, tsvFile := range tsvFiles {
		base := strings.TrimSuffix(tsvFile, filepath.Ext(tsvFile))

		b.StartPage(0, 0)
		if img, w, h, ok := findPageImage(base); ok {
			b.SetPageImage(img)
			b.SetPageSize(w, h)
		}

		if err := parseTSVFile(tsvFile, b); err != nil {
			return nil, err
		}
	}

	name := filepath.Base(filepath.Clean(dir))
	return b.Build(name, name, dir), nil
}

func parseTSVFile(path string, b *Builder) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to read page file: %w", err)
	}
	defer file.Close()

	if err := ParseTSV(file, b); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// naturalLess orders page-2 before page-10
func naturalLess(a, b string) bool {
	na, aok := trailingNumber(a)
	nb, bok := trailingNumber(b)
	if aok && bok && na != nb {
		return na < nb
	}
	return a < b
}

func trailingNumber(name string) (int, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(name[start:end])
	return n, err == nil
}
