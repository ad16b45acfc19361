// Package decklist reads card lists from files for the CLI.
package decklist

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/joshmayeda/pGEN-server/internal/models"
)

// Loader loads a deck from a JSON, JSONL, YAML or Parquet file
type Loader struct {
	path string
}

// NewLoader creates a loader for the deck file at path
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads every card entry, picking the format from the file extension
func (l *Loader) Load() ([]models.CardEntry, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".json":
		return l.loadJSON()
	case ".jsonl", ".ndjson":
		return l.loadJSONL()
	case ".yaml", ".yml":
		return l.loadYAML()
	case ".parquet":
		return l.loadParquet()
	default:
		return nil, fmt.Errorf("unsupported deck format: %s (supported: .json, .jsonl, .yaml, .parquet)", ext)
	}
}

// Requests loads the deck as pipeline input
func (l *Loader) Requests() ([]models.CardRequest, error) {
	entries, err := l.Load()
	if err != nil {
		return nil, err
	}
	return models.CardRequests(entries), nil
}

// loadJSON accepts either the request body shape {"allCards": [...]} or a
// bare array of entries
func (l *Loader) loadJSON() ([]models.CardEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []models.CardEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse deck JSON: %w", err)
		}
		return entries, nil
	}

	var req models.GenerateRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, fmt.Errorf("failed to parse deck JSON: %w", err)
	}
	return req.AllCards, nil
}

func (l *Loader) loadJSONL() ([]models.CardEntry, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck file: %w", err)
	}
	defer file.Close()

	var entries []models.CardEntry
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry models.CardEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading deck: %w", err)
	}

	slog.Debug("Finished reading JSONL deck", "entries", len(entries), "lines", lineNum)
	return entries, nil
}

func (l *Loader) loadYAML() ([]models.CardEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse deck YAML: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	doc := node.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var entries []models.CardEntry
		if err := doc.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to decode deck YAML: %w", err)
		}
		return entries, nil
	}

	var req models.GenerateRequest
	if err := doc.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode deck YAML: %w", err)
	}
	return req.AllCards, nil
}

func (l *Loader) loadParquet() ([]models.CardEntry, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet deck opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[models.CardEntry](pf)
	defer reader.Close()

	var entries []models.CardEntry
	rows := make([]models.CardEntry, 128)
	for {
		n, err := reader.Read(rows)
		entries = append(entries, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return entries, nil
}
