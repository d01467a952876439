package utils

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"go-subxt/internal/codec"
)

// MetadataFile is where the metadata of specVersion lives under dir, one file per spec
// version named after it.
func MetadataFile(dir string, specVersion uint32) string {
	return path.Join(dir, strconv.FormatUint(uint64(specVersion), 10))
}

// ReadMetadataFile loads a metadata dump. Files hold the 0x hex string returned by
// state_getMetadata; raw binary dumps are accepted too.
func ReadMetadataFile(filePath string) ([]byte, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(text, "0x") {
		return raw, nil
	}
	return codec.HexToBytes(text)
}

// WriteMetadataFile stores raw as hex in MetadataFile(dir, specVersion).
func WriteMetadataFile(dir string, specVersion uint32, raw []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create metadata dir: %w", err)
	}
	filePath := MetadataFile(dir, specVersion)
	if err := os.WriteFile(filePath, []byte(codec.BytesToHex(raw)), 0o644); err != nil {
		return "", fmt.Errorf("write metadata file: %w", err)
	}
	return filePath, nil
}
