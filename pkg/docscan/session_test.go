package docscan_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/doc-scanner/internal/testutil"
	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

func TestScanSource_DecodeFailureScansRawBytes(t *testing.T) {
	src := []byte("function a() {}")
	dec := new(testutil.MockDecoder)
	dec.On("IsBinary", src).Return(false).Once()
	dec.On("Decode", src).Return("", "", errors.New("unsupported charset")).Once()

	logBuf := &bytes.Buffer{}
	hooks := testutil.NewRecordingHooks()
	s, err := docscan.NewScanner(docscan.Options{
		Logger:     slog.NewTextHandler(logBuf, nil),
		EventHooks: hooks,
		Decoder:    dec,
	})
	require.NoError(t, err)

	report, err := s.ScanSource(context.Background(), "a.js", src)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Count(finding.MissingHeader))
	assert.Equal(t, 1, report.Count(finding.MissingFunctionDoc))
	assert.Equal(t, docscan.StatusScanned, hooks.Statuses["a.js"])
	assert.Contains(t, logBuf.String(), "Decoding failed, scanning raw bytes")
	assert.Contains(t, logBuf.String(), "unsupported charset")
	dec.AssertExpectations(t)
}

// growingWalker yields more files on its second pass than on its first, as
// when files are created while a scan is running.
type growingWalker struct {
	passes        int
	first, second []string
}

func (w *growingWalker) Walk(ctx context.Context, recursive bool, fn func(path string) error) error {
	w.passes++
	files := w.first
	if w.passes > 1 {
		files = w.second
	}
	for _, f := range files {
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func TestScanTree_FilesAddedDuringScan(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	testutil.CreateDummyDir(t, src)
	var paths []string
	for _, name := range []string{"a.js", "b.js", "c.js"} {
		path := filepath.Join(src, name)
		testutil.CreateSourceFile(t, path, "const x = 1;")
		paths = append(paths, path)
	}

	walker := &growingWalker{first: paths[:2], second: paths}
	s, hooks := newTestScanner(t, func(o *docscan.Options) {
		o.WalkerFactory = func(string, *docscan.Options, slog.Handler) (docscan.FileWalker, error) {
			return walker, nil
		}
	})
	report, err := s.ScanTree(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, hooks.Progress, 3)
	for _, p := range hooks.Progress {
		assert.LessOrEqual(t, p.Done, p.Total)
		assert.LessOrEqual(t, p.Percent, 100.0)
	}
	last := hooks.Progress[2]
	assert.Equal(t, 2, last.Done)
	assert.Equal(t, 2, last.Total)
	assert.InDelta(t, 100.0, last.Percent, 1e-9)
	assert.Equal(t, 3, report.Summary.TotalFiles)
	assert.Equal(t, 3, report.Count(finding.MissingHeader))
}

func TestScanTree_NoRoots(t *testing.T) {
	walker := &testutil.MockWalker{}
	s, hooks := newTestScanner(t, func(o *docscan.Options) {
		o.WalkerFactory = testutil.WalkerFactoryFor(walker)
	})

	_, err := s.ScanTree(context.Background())
	assert.ErrorIs(t, err, docscan.ErrNoFolderSelected)
	_, err = s.ScanWorkspace(context.Background(), []string{})
	assert.ErrorIs(t, err, docscan.ErrNoWorkspaceRoot)

	walker.AssertNotCalled(t, "Walk", mock.Anything, mock.Anything)
	assert.Empty(t, hooks.Completed)
}
