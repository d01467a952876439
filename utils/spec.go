package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"go-subxt/internal/clients/specversion"
)

// ReadSpecVersionRanges loads a JSON list of spec version ranges.
func ReadSpecVersionRanges(filePath string) (specversion.RangeList, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read spec version ranges: %w", err)
	}
	var ranges specversion.RangeList
	if err := json.Unmarshal(raw, &ranges); err != nil {
		return nil, fmt.Errorf("decode spec version ranges: %w", err)
	}
	return ranges, nil
}

func WriteSpecVersionRanges(filePath string, ranges specversion.RangeList) error {
	raw, err := json.MarshalIndent(ranges, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, raw, 0o644); err != nil {
		return fmt.Errorf("write spec version ranges: %w", err)
	}
	return nil
}
