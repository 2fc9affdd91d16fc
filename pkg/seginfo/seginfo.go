// Package seginfo provides utilities for managing sequentially numbered
// partition files in lexi's on-disk index.
//
// Filename Format: prefix.NNNNNN
//
// Where:
//   - prefix: A configurable string identifying the file type (e.g., "index").
//   - NNNNNN: A zero-padded 6-digit sequence number (000001, 000002, ...).
//
// Unlike the segment-rotation naming this package originally served,
// partition filenames carry no timestamp: ordering is entirely by
// sequence number, assigned once at creation and never reused, so
// lexicographic sort over zero-padded ids is sufficient to find the
// latest partition.
//
// Example filenames:
//
//	index.000001
//	index.000042
//	index.000100
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/iamNilotpal/lexi/pkg/filesys"
)

// GetLatestPartitionInfo discovers and analyzes the most recent partition
// file in the specified directory. It performs a comprehensive search of
// the partition directory, identifies the file with the highest sequence
// number, and returns detailed information about that file.
//
// Returns:
//   - uint64: The sequence ID of the latest partition (0 if none exist).
//   - os.FileInfo: File metadata for the latest partition (nil if none exist).
//   - error: Detailed error information if any operation fails.
func GetLatestPartitionInfo(dataDir, partitionDir, prefix string) (uint64, os.FileInfo, error) {
	if dataDir == "" || partitionDir == "" || prefix == "" {
		return 0, nil, fmt.Errorf("all parameters (dataDir, partitionDir, prefix) must be non-empty")
	}

	lastPath, err := GetLatestPartitionName(dataDir, partitionDir, prefix)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to discover latest partition: %w", err)
	}

	// Bootstrap case: no existing partitions found.
	if lastPath == "" {
		return 0, nil, nil
	}

	partitionID, err := ParsePartitionID(lastPath, prefix)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse partition ID from %s: %w", lastPath, err)
	}

	fileInfo, err := GetFileInfo(lastPath)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to retrieve file info for %s: %w", lastPath, err)
	}

	return partitionID, fileInfo, nil
}

// GetLatestPartitionName searches the partition directory and identifies
// the file with the highest sequence ID. This works because partition
// filenames use zero-padded ids, so lexicographic and numeric order
// coincide.
//
// Returns:
//   - string: Full path to the partition file with the highest ID (empty if none found).
//   - error: Detailed error if directory reading fails.
func GetLatestPartitionName(dataDir, partitionDir, prefix string) (string, error) {
	if dataDir == "" || partitionDir == "" || prefix == "" {
		return "", fmt.Errorf("all parameters (dataDir, partitionDir, prefix) must be non-empty")
	}

	// Example: "/var/lib/lexi/partitions/index.*"
	searchPattern := filepath.Join(dataDir, partitionDir, prefix+".*")

	matchingFiles, err := filesys.ReadDir(searchPattern)
	if err != nil {
		return "", fmt.Errorf("failed to read partition directory with pattern %s: %w", searchPattern, err)
	}
	if len(matchingFiles) == 0 {
		return "", nil
	}

	slices.Sort(matchingFiles)
	return matchingFiles[len(matchingFiles)-1], nil
}

// GenerateName creates a properly formatted filename for a new partition
// file: "prefix.NNNNNN", zero-padded to 6 digits.
func GenerateName(id uint64, prefix string) string {
	if prefix == "" {
		return fmt.Sprintf("INVALID_PREFIX.%06d", id)
	}
	return fmt.Sprintf("%s.%06d", prefix, id)
}

// ParsePartitionID extracts the sequence ID from a partition filename.
func ParsePartitionID(fullPath, prefix string) (uint64, error) {
	_, filename := filepath.Split(fullPath)

	if !strings.HasPrefix(filename, prefix+".") {
		return 0, fmt.Errorf("filename %s does not start with expected prefix %s", filename, prefix)
	}

	idStr := strings.TrimPrefix(filename, prefix+".")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse partition ID '%s' as integer: %w", idStr, err)
	}
	return id, nil
}

// GetFileInfo safely retrieves file system metadata for a given path.
func GetFileInfo(filePath string) (os.FileInfo, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filePath, closeErr)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for %s: %w", filePath, err)
	}
	return stat, nil
}
