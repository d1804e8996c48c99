package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// OutputManager places CLI exports in one UUID-named directory per run.
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// NewRunID returns a fresh run identifier.
func (om *OutputManager) NewRunID() string {
	return uuid.NewString()
}

// CreateRunDir creates the directory for a run's outputs.
func (om *OutputManager) CreateRunDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	dir := filepath.Join(om.BaseOutputDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}
	return dir, nil
}

// OutputFilePath returns where fileName is written for runID. Directory
// components in fileName are dropped.
func (om *OutputManager) OutputFilePath(runID, fileName string) (string, error) {
	dir, err := om.CreateRunDir(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

// Create opens fileName for writing inside a new run directory.
func (om *OutputManager) Create(fileName string) (*os.File, string, error) {
	path, err := om.OutputFilePath(om.NewRunID(), fileName)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create %s: %w", path, err)
	}
	return f, path, nil
}

// FileType names the export format from the extension.
func (om *OutputManager) FileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xls":
		return "excel"
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return "unknown"
	}
}
