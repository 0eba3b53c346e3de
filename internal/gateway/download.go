package gateway

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects how a downloaded database is stored on disk.
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionLZ4  CompressionType = "lz4"
	CompressionZstd CompressionType = "zstd"
)

// ParseCompression maps a flag value to a CompressionType.
func ParseCompression(s string) (CompressionType, error) {
	switch CompressionType(strings.ToLower(strings.TrimSpace(s))) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, "gz":
		return CompressionGzip, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	case CompressionZstd, "zst":
		return CompressionZstd, nil
	}
	return "", fmt.Errorf("unknown compression %q (want none, gzip, lz4 or zstd)", s)
}

// Extension returns the suffix appended to the output file.
func (c CompressionType) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionLZ4:
		return ".lz4"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// DownloadResult describes a saved database file.
type DownloadResult struct {
	Path        string
	Bytes       int64
	StoredBytes int64
	Compression CompressionType
}

// countingWriter counts bytes passing through to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// SaveDatabase downloads the session database into path, compressing it
// when requested. The compression extension is appended to path.
func (c *Client) SaveDatabase(ctx context.Context, sessionID, path string, compression CompressionType) (*DownloadResult, error) {
	if err := c.check(sessionInput{SessionID: sessionID}); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &ValidationError{Field: "Path", Message: "output path cannot be empty"}
	}
	if compression == "" {
		compression = CompressionNone
	}
	outputPath := path + compression.Extension()

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer file.Close()

	var writer io.Writer = file
	var compressCloser io.Closer

	switch compression {
	case CompressionGzip:
		gzWriter := gzip.NewWriter(file)
		writer = gzWriter
		compressCloser = gzWriter
	case CompressionLZ4:
		lz4Writer := lz4.NewWriter(file)
		writer = lz4Writer
		compressCloser = lz4Writer
	case CompressionZstd:
		zstdWriter, err := zstd.NewWriter(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		writer = zstdWriter
		compressCloser = zstdWriter
	}

	raw := &countingWriter{w: writer}
	if _, err := c.Download(ctx, sessionID, raw); err != nil {
		if compressCloser != nil {
			compressCloser.Close()
		}
		file.Close()
		os.Remove(outputPath)
		return nil, err
	}

	if compressCloser != nil {
		if err := compressCloser.Close(); err != nil {
			return nil, fmt.Errorf("failed to close compression writer: %w", err)
		}
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &DownloadResult{
		Path:        outputPath,
		Bytes:       raw.n,
		StoredBytes: info.Size(),
		Compression: compression,
	}, nil
}
