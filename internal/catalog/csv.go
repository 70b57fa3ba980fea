package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Catalog files carry these header names. Matching is case-insensitive and
// column order is not significant.
const (
	columnID         = "id"
	columnName       = "pbt_name"
	columnDefinition = "pbt_definition"
	columnCDM        = "cdm"
)

// ParseCSV reads a catalog file into upsert commands. Rows missing an ID or
// name are rejected with their line number and parsing continues; a row error
// never aborts the file. Duplicate IDs within a file resolve to the last
// occurrence.
func ParseCSV(data []byte) ([]UpsertCommand, []RowError, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing header row", ErrInvalidFile)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		cmds     []UpsertCommand
		rejected []RowError
		seen     = map[string]int{}
		line     = 1
	)

	for {
		record, err := reader.Read()
		line++

		if err == io.EOF {
			break
		}
		if err != nil {
			rejected = append(rejected, RowError{Line: line, Error: err.Error()})
			continue
		}

		cmd, err := rowCommand(cols, record)
		if err != nil {
			rejected = append(rejected, RowError{Line: line, Error: err.Error()})
			continue
		}

		if prev, ok := seen[cmd.ID]; ok {
			cmds[prev] = cmd
			continue
		}

		seen[cmd.ID] = len(cmds)
		cmds = append(cmds, cmd)
	}

	return cmds, rejected, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{columnID, columnName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidFile, required)
		}
	}

	return cols, nil
}

func rowCommand(cols map[string]int, record []string) (UpsertCommand, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	cmd := UpsertCommand{
		ID:         field(columnID),
		Name:       field(columnName),
		Definition: field(columnDefinition),
	}

	if cmd.ID == "" {
		return UpsertCommand{}, fmt.Errorf("missing id")
	}
	if cmd.Name == "" {
		return UpsertCommand{}, fmt.Errorf("missing name")
	}

	if cdm := field(columnCDM); cdm != "" {
		cmd.CDM = &cdm
	}

	return cmd, nil
}
