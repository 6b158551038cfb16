package archiver

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Cybercom1973/taglaget/pkg/ctdf"
	"github.com/klauspost/compress/zstd"
)

// BundleWriter writes archived trains as individual JSON files into a
// zstd compressed tarball
type BundleWriter struct {
	Count int

	modTime    time.Time
	encoder    *zstd.Encoder
	tarWriter  *tar.Writer
}

func NewBundleWriter(writer io.Writer, modTime time.Time) (*BundleWriter, error) {
	encoder, err := zstd.NewWriter(writer)
	if err != nil {
		return nil, err
	}

	return &BundleWriter{
		modTime:   modTime,
		encoder:   encoder,
		tarWriter: tar.NewWriter(encoder),
	}, nil
}

func (b *BundleWriter) Add(archivedTrain *ctdf.ArchivedTrain) error {
	archivedTrainJSON, err := json.Marshal(archivedTrain)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", archivedTrain.PrimaryIdentifier, err)
	}

	filename := BundleFilename(archivedTrain.PrimaryIdentifier)

	header, err := tar.FileInfoHeader(memoryFileInfo{
		name:    filename,
		size:    int64(len(archivedTrainJSON)),
		mode:    0644,
		modTime: b.modTime,
	}, filename)
	if err != nil {
		return err
	}

	if err := b.tarWriter.WriteHeader(header); err != nil {
		return err
	}
	if _, err := b.tarWriter.Write(archivedTrainJSON); err != nil {
		return err
	}

	b.Count++

	return nil
}

// Close flushes the tar stream and then the compressor. It does not close the
// underlying writer.
func (b *BundleWriter) Close() error {
	if err := b.tarWriter.Close(); err != nil {
		b.encoder.Close()
		return err
	}

	return b.encoder.Close()
}

func BundleFilename(primaryIdentifier string) string {
	return strings.NewReplacer(":", "_", "/", "_").Replace(primaryIdentifier) + ".json"
}
