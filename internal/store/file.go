package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// FileSink writes artifacts under Dir as <name>.<ext>. Each write goes to a
// temp file first and is renamed over the target, so a rerun replaces the
// previous output and readers never see a half-written file.
type FileSink struct {
	Dir string
	Enc Encoder
}

func NewFileSink(dir string, enc Encoder) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output dir %s", dir)
	}
	return &FileSink{Dir: dir, Enc: enc}, nil
}

func (f *FileSink) Path(name string) string {
	return filepath.Join(f.Dir, name+"."+f.Enc.Ext())
}

func (f *FileSink) Put(_ context.Context, a Artifact) error {
	var buf bytes.Buffer
	if err := f.Enc.Encode(&buf, a.Records); err != nil {
		return errors.Wrapf(err, "encode %s", a.Name)
	}
	return writeFileAtomic(f.Path(a.Name), buf.Bytes())
}

func writeFileAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrapf(err, "chmod %s", path)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "rename into %s", path)
}
