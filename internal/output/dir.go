package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/inodb/vibe-inherit/internal/pipeline"
	"github.com/inodb/vibe-inherit/internal/table"
)

// Dir is a pipeline.Sink writing each candidate set to its own file.
type Dir struct {
	path     string
	compress bool
	logger   *zap.Logger
}

// NewDir creates a sink writing into path, creating it if needed.
// With compress set, files are gzip-compressed and get a ".gz" suffix.
func NewDir(path string, compress bool) (*Dir, error) {
	if path == "" {
		path = "."
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Dir{
		path:     path,
		compress: compress,
		logger:   zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for written-file messages.
func (d *Dir) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Path returns the file a set derived from t is written to.
func (d *Dir) Path(t *table.Table, s *pipeline.CandidateSet) string {
	name := filepath.Join(d.path, s.FileName(t.Name))
	if d.compress {
		name += ".gz"
	}
	return name
}

// WriteSet implements pipeline.Sink. Existing files are overwritten.
func (d *Dir) WriteSet(t *table.Table, s *pipeline.CandidateSet) (err error) {
	name := d.Path(t, s)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	write := WriteSet
	if d.compress {
		write = writeGzip
	}
	if err := write(f, t, s); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	d.logger.Info("wrote candidate set",
		zap.String("set", s.Prefix+s.Label),
		zap.String("path", name),
		zap.Int("rows", s.Rows.Len()))
	return nil
}

// writeGzip writes s to w compressed. The writer is closed on every path
// so its compression goroutines exit.
func writeGzip(w io.Writer, t *table.Table, s *pipeline.CandidateSet) error {
	z := pgzip.NewWriter(w)
	defer z.Close()
	if err := WriteSet(z, t, s); err != nil {
		return err
	}
	return z.Close()
}
