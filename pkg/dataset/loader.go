package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// UnlabeledToken is the textual marker loaders translate into the
// Unlabeled sentinel.
const UnlabeledToken = "unlabeled"

// LoadOption configures the file readers.
type LoadOption func(*loadConfig)

type loadConfig struct {
	targetCol int // -1 => last column / file default
	secure    bool
	header    bool
}

// WithTargetColumn selects the class column by index. The default is
// the file's own declaration (KEEL @outputs) or the last column.
func WithTargetColumn(col int) LoadOption { return func(c *loadConfig) { c.targetCol = col } }

// WithSecure toggles the -1 class remap. Enabled by default.
func WithSecure(secure bool) LoadOption { return func(c *loadConfig) { c.secure = secure } }

// WithHeader declares whether a CSV file carries a header row.
func WithHeader(header bool) LoadOption { return func(c *loadConfig) { c.header = header } }

// ReadKeel reads a KEEL .dat file (http://www.keel.es/): @attribute
// declarations, an optional @outputs target, then CSV rows after @data.
// It returns the feature matrix, encoded labels and the class-token
// mapping (nil when the class column is already numeric).
func ReadKeel(path string, opts ...LoadOption) ([][]float64, []int, map[string]int, error) {
	cfg := loadConfig{targetCol: -1, secure: true}
	for _, o := range opts {
		o(&cfg)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	var attributes []string
	target := ""
	scanner := bufio.NewScanner(file)
	var dataLines []string
	inData := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case inData:
			if line != "" {
				dataLines = append(dataLines, line)
			}
		case strings.HasPrefix(line, "@attribute"):
			parts := strings.Fields(line)
			if len(parts) < 2 {
				return nil, nil, nil, fmt.Errorf("dataset: malformed attribute line %q", line)
			}
			attributes = append(attributes, parts[1])
		case strings.HasPrefix(line, "@outputs"):
			parts := strings.Fields(line)
			if len(parts) > 1 {
				target = parts[1]
			}
		case strings.HasPrefix(line, "@data"):
			inData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, err
	}
	if len(attributes) == 0 {
		return nil, nil, nil, fmt.Errorf("dataset: %s declares no attributes", path)
	}

	targetCol := cfg.targetCol
	if targetCol < 0 {
		targetCol = len(attributes) - 1
		if target != "" {
			for i, name := range attributes {
				if name == target {
					targetCol = i
					break
				}
			}
		}
	}

	records := make([][]string, 0, len(dataLines))
	for _, line := range dataLines {
		fields := strings.Split(line, ",")
		if len(fields) != len(attributes) {
			return nil, nil, nil, fmt.Errorf("dataset: row has %d columns, file declares %d", len(fields), len(attributes))
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		records = append(records, fields)
	}
	return parseTable(records, targetCol, cfg.secure)
}

// ReadCSV reads a plain CSV file. The class column defaults to the last
// one; a header row is skipped when WithHeader(true) is given.
func ReadCSV(path string, opts ...LoadOption) ([][]float64, []int, map[string]int, error) {
	cfg := loadConfig{targetCol: -1, secure: true}
	for _, o := range opts {
		o(&cfg)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(bufio.NewReader(file)).ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.header && len(records) > 0 {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("dataset: %s holds no data rows", path)
	}

	targetCol := cfg.targetCol
	if targetCol < 0 {
		targetCol = len(records[0]) - 1
	}
	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return parseTable(records, targetCol, cfg.secure)
}

// parseTable turns string records into (X, y). Non-target columns must
// be numeric; empty cells and "?" become NaN. Target tokens: UnlabeledToken becomes the sentinel;
// otherwise integers are used as-is and any other strings are
// label-encoded in sorted token order.
func parseTable(records [][]string, targetCol int, secure bool) ([][]float64, []int, map[string]int, error) {
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("dataset: empty table")
	}
	cols := len(records[0])
	if targetCol < 0 || targetCol >= cols {
		return nil, nil, nil, fmt.Errorf("dataset: target column %d out of range for %d columns", targetCol, cols)
	}

	X := make([][]float64, len(records))
	tokens := make([]string, len(records))
	for i, rec := range records {
		if len(rec) != cols {
			return nil, nil, nil, fmt.Errorf("dataset: ragged row %d", i)
		}
		row := make([]float64, 0, cols-1)
		for j, cell := range rec {
			if j == targetCol {
				tokens[i] = cell
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				if cell != "" && cell != "?" {
					return nil, nil, nil, fmt.Errorf("dataset: row %d column %d: %w", i, j, err)
				}
				v = math.NaN() // missing cell, left for imputation
			}
			row = append(row, v)
		}
		X[i] = row
	}

	// Decide whether the labeled tokens are numeric.
	numeric := true
	for _, tok := range tokens {
		if tok == UnlabeledToken {
			continue
		}
		if _, err := strconv.Atoi(tok); err != nil {
			numeric = false
			break
		}
	}

	y := make([]int, len(tokens))
	var classNames map[string]int
	if numeric {
		labeled := make([]int, 0, len(tokens))
		for _, tok := range tokens {
			if tok == UnlabeledToken {
				continue
			}
			v, _ := strconv.Atoi(tok)
			labeled = append(labeled, v)
		}
		if secure {
			labeled = Secure(labeled)
		}
		next := 0
		for i, tok := range tokens {
			if tok == UnlabeledToken {
				y[i] = Unlabeled
			} else {
				y[i] = labeled[next]
				next++
			}
		}
	} else {
		classNames = encodeClassTokens(tokens)
		for i, tok := range tokens {
			if tok == UnlabeledToken {
				y[i] = Unlabeled
			} else {
				y[i] = classNames[tok]
			}
		}
	}
	return X, y, classNames, nil
}

// encodeClassTokens assigns codes 0..k-1 in sorted token order, which
// keeps the encoding independent of row order.
func encodeClassTokens(tokens []string) map[string]int {
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if tok == UnlabeledToken {
			continue
		}
		seen[tok] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for tok := range seen {
		names = append(names, tok)
	}
	sort.Strings(names)
	out := make(map[string]int, len(names))
	for i, tok := range names {
		out[tok] = i
	}
	return out
}
