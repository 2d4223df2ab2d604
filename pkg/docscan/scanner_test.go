package docscan_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stackvity/doc-scanner/internal/testutil"
	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestScanner(t *testing.T, mutate func(*docscan.Options)) (*docscan.Scanner, *testutil.RecordingHooks) {
	t.Helper()
	hooks := testutil.NewRecordingHooks()
	opts := docscan.Options{Logger: testutil.DiscardHandler(), EventHooks: hooks}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := docscan.NewScanner(opts)
	require.NoError(t, err)
	return s, hooks
}

func TestNewScanner_RequiresLogger(t *testing.T) {
	_, err := docscan.NewScanner(docscan.Options{})
	assert.ErrorIs(t, err, docscan.ErrConfigValidation)
}

func TestScanSource(t *testing.T) {
	s, hooks := newTestScanner(t, nil)

	report, err := s.ScanSource(context.Background(), "a.js", []byte("const x = 1;\nfunction foo() {}"))
	require.NoError(t, err)

	assert.Equal(t, []finding.Finding{
		{Category: finding.MissingFunctionDoc, File: "a.js", Line: 2},
		{Category: finding.MissingHeader, File: "a.js", Line: 1},
	}, report.Findings)
	assert.Equal(t, 1, report.Count(finding.MissingHeader))
	assert.Equal(t, 1, report.Count(finding.MissingFunctionDoc))
	assert.True(t, report.Summary.Complete)
	assert.Equal(t, docscan.ModeFile, report.Summary.Mode)

	require.Len(t, hooks.Completed, 1)
	assert.Equal(t, report.Findings, hooks.Findings)
	assert.Equal(t, []docscan.Mode{docscan.ModeFile}, hooks.Starts)
}

func TestScanSource_UnsupportedExtension(t *testing.T) {
	s, hooks := newTestScanner(t, nil)

	report, err := s.ScanSource(context.Background(), "notes.txt", []byte("function foo() {}"))
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
	assert.Zero(t, report.Summary.TotalFindings)
	assert.Equal(t, docscan.StatusSkipped, hooks.Statuses["notes.txt"])
	assert.Len(t, hooks.Completed, 1)
}

func TestScan_NoActiveFile(t *testing.T) {
	s, hooks := newTestScanner(t, nil)
	ctx := context.Background()

	_, err := s.ScanSource(ctx, "", nil)
	assert.ErrorIs(t, err, docscan.ErrNoActiveFile)
	_, err = s.ScanFile(ctx, "")
	assert.ErrorIs(t, err, docscan.ErrNoActiveFile)
	_, err = s.ScanFolder(ctx, "")
	assert.ErrorIs(t, err, docscan.ErrNoActiveFile)
	_, err = s.ScanTree(ctx)
	assert.ErrorIs(t, err, docscan.ErrNoFolderSelected)
	_, err = s.ScanWorkspace(ctx, nil)
	assert.ErrorIs(t, err, docscan.ErrNoWorkspaceRoot)
	_, err = s.ScanTree(ctx, "")
	assert.ErrorIs(t, err, docscan.ErrNoFolderSelected)

	assert.Empty(t, hooks.Completed)
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.py")
	testutil.CreateSourceFile(t, path, "import os", "", "x = 1", "", "", "def foo():", "    return 1")

	s, _ := newTestScanner(t, nil)
	report, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []finding.Finding{
		{Category: finding.MissingHeader, File: path, Line: 1},
		{Category: finding.MissingFunctionDoc, File: path, Line: 7},
	}, report.Findings)
	require.Len(t, report.Files, 1)
	assert.Equal(t, "python", report.Files[0].Dialect)
	assert.Equal(t, "python", report.Files[0].Language)
	assert.Equal(t, docscan.StatusScanned, report.Files[0].Status)
}

func TestScanFile_ReadFailure(t *testing.T) {
	s, hooks := newTestScanner(t, nil)
	missing := filepath.Join(t.TempDir(), "gone.js")

	report, err := s.ScanFile(context.Background(), missing)
	require.ErrorIs(t, err, docscan.ErrReadFailed)
	assert.False(t, report.Summary.Complete)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, missing, report.Errors[0].Path)
	assert.True(t, report.Errors[0].IsFatal)
	require.Len(t, hooks.Completed, 1)
	assert.False(t, hooks.Completed[0].Summary.Complete)
}

func TestScanFile_BinarySkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.js")
	require.NoError(t, os.WriteFile(path, append([]byte("ab"), make([]byte, 128)...), 0o644))

	s, _ := newTestScanner(t, nil)
	report, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
	require.Len(t, report.Files, 1)
	assert.Equal(t, docscan.StatusSkipped, report.Files[0].Status)
	assert.Equal(t, docscan.SkipReasonBinary, report.Files[0].Reason)
}

func TestScanFolder_Flat(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateSourceFile(t, filepath.Join(dir, "a.js"), "function a() {}")
	testutil.CreateSourceFile(t, filepath.Join(dir, "nested", "b.js"), "function b() {}")

	s, _ := newTestScanner(t, nil)
	// A file path selects its containing folder.
	report, err := s.ScanFolder(context.Background(), filepath.Join(dir, "a.js"))
	require.NoError(t, err)

	assert.Equal(t, docscan.ModeFolder, report.Summary.Mode)
	assert.Equal(t, 1, report.Count(finding.MissingFunctionDoc))
	assert.Equal(t, 1, report.Count(finding.MissingHeader))
	for _, f := range report.Findings {
		assert.Equal(t, filepath.Join(dir, "a.js"), f.File)
	}
}

func TestScanTree(t *testing.T) {
	root := t.TempDir()
	testutil.CreateSourceFile(t, filepath.Join(root, "a.js"), "/**", " * @author X", " */", "function foo() {}")
	testutil.CreateSourceFile(t, filepath.Join(root, "readme.txt"), "function foo() {}")
	testutil.CreateSourceFile(t, filepath.Join(root, "pkg", "m.py"), `"""Doc."""`, "class A:", "    pass")
	testutil.CreateSourceFile(t, filepath.Join(root, "pkg", "index.php"), "<?php", "echo 1;")

	s, hooks := newTestScanner(t, nil)
	report, err := s.ScanTree(context.Background(), root)
	require.NoError(t, err)

	assert.True(t, report.Summary.Complete)
	assert.Equal(t, 4, report.Summary.TotalFiles)
	assert.Equal(t, 3, report.Summary.ScannedCount)
	assert.Equal(t, 1, report.Summary.SkippedCount)
	assert.Equal(t, 1, report.Count(finding.MissingHeaderInfo))
	assert.Equal(t, 1, report.Count(finding.MissingClassDoc))
	assert.Equal(t, 1, report.Count(finding.MissingHeader))
	assert.Equal(t, 0, report.Count(finding.MissingFunctionDoc))

	require.Len(t, hooks.Progress, 4)
	assert.InDelta(t, 25.0, hooks.Progress[0].Increment, 1e-9)
	assert.Equal(t, 100.0, hooks.Progress[3].Percent)
	assert.Len(t, hooks.Found, 4)

	t.Run("idempotent", func(t *testing.T) {
		again, err := s.ScanTree(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, report.Findings, again.Findings)
		assert.Equal(t, report.Counts, again.Counts)
	})
}

func TestScanTree_EmptyDirectory(t *testing.T) {
	s, hooks := newTestScanner(t, nil)
	report, err := s.ScanTree(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.True(t, report.Summary.Complete)
	assert.Zero(t, report.Summary.TotalFindings)
	for _, c := range report.Counts {
		assert.Zero(t, c.Count)
	}
	assert.Empty(t, hooks.Progress)
	assert.Len(t, hooks.Completed, 1)
}

func TestScanWorkspace_MultipleRoots(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	testutil.CreateSourceFile(t, filepath.Join(first, "a.js"), "function a() {}")
	testutil.CreateSourceFile(t, filepath.Join(second, "b.js"), "function b() {}")

	s, hooks := newTestScanner(t, nil)
	report, err := s.ScanWorkspace(context.Background(), []string{first, second})
	require.NoError(t, err)

	assert.Equal(t, docscan.ModeWorkspace, report.Summary.Mode)
	assert.Equal(t, 2, report.Count(finding.MissingFunctionDoc))
	require.Len(t, hooks.Progress, 2)
	assert.Equal(t, 2, hooks.Progress[0].Total)
	assert.InDelta(t, 50.0, hooks.Progress[0].Percent, 1e-9)
	assert.Len(t, hooks.Completed, 1)
}

func TestScanTree_EnumerationFailure(t *testing.T) {
	walker := &testutil.MockWalker{}
	walker.On("Walk", mock.Anything, true).Return(docscan.ErrEnumerationFailed).Once()

	s, hooks := newTestScanner(t, func(o *docscan.Options) {
		o.WalkerFactory = testutil.WalkerFactoryFor(walker)
	})
	report, err := s.ScanTree(context.Background(), "/anywhere")
	require.ErrorIs(t, err, docscan.ErrEnumerationFailed)
	assert.False(t, report.Summary.Complete)
	assert.Len(t, hooks.Completed, 1)
	walker.AssertExpectations(t)
}

func TestScanTree_ReadFailureKeepsPartialResults(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "a.js")
	testutil.CreateSourceFile(t, good, "function a() {}")

	walker := &testutil.MockWalker{Files: []string{good, filepath.Join(root, "vanished.js")}}
	walker.On("Walk", mock.Anything, true).Return(nil)

	s, _ := newTestScanner(t, func(o *docscan.Options) {
		o.WalkerFactory = testutil.WalkerFactoryFor(walker)
	})
	report, err := s.ScanTree(context.Background(), root)
	require.ErrorIs(t, err, docscan.ErrReadFailed)

	assert.False(t, report.Summary.Complete)
	assert.Equal(t, 1, report.Count(finding.MissingFunctionDoc))
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Path, "vanished.js")
}

func TestScanTree_Cancelled(t *testing.T) {
	root := t.TempDir()
	testutil.CreateSourceFile(t, filepath.Join(root, "a.js"), "function a() {}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, hooks := newTestScanner(t, nil)
	report, err := s.ScanTree(ctx, root)
	require.True(t, errors.Is(err, context.Canceled))
	assert.False(t, report.Summary.Complete)
	require.Len(t, report.Errors, 1)
	assert.False(t, report.Errors[0].IsFatal)
	assert.Len(t, hooks.Completed, 1)
}

func TestScanner_RejectsConcurrentScan(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	walker := &testutil.MockWalker{}
	walker.On("Walk", mock.Anything, true).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(nil).Once()
	walker.On("Walk", mock.Anything, true).Return(nil)

	s, _ := newTestScanner(t, func(o *docscan.Options) {
		o.WalkerFactory = testutil.WalkerFactoryFor(walker)
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.ScanTree(context.Background(), "/root-a")
		done <- err
	}()
	<-entered

	_, err := s.ScanFile(context.Background(), "x.js")
	assert.ErrorIs(t, err, docscan.ErrScanInProgress)

	close(release)
	require.NoError(t, <-done)

	// The guard is released once the first session completes.
	_, err = s.ScanSource(context.Background(), "x.js", []byte("function x() {}"))
	assert.NoError(t, err)
}

func TestScanTree_Unreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	testutil.CreateSourceFile(t, filepath.Join(locked, "a.js"), "function a() {}")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	s, _ := newTestScanner(t, nil)
	_, err := s.ScanTree(context.Background(), root)
	assert.ErrorIs(t, err, docscan.ErrEnumerationFailed)
}

func TestScanner_HookErrorsAreIgnored(t *testing.T) {
	hooks := new(testutil.MockHooks)
	hooks.On("OnRunStart", docscan.ModeFile, []string{"a.js"}).Return(errors.New("boom"))
	hooks.On("OnFileStatusUpdate", "a.js", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom"))
	hooks.On("OnFinding", mock.Anything).Return(errors.New("boom"))
	hooks.On("OnRunComplete", mock.Anything).Return(errors.New("boom")).Once()

	s, err := docscan.NewScanner(docscan.Options{Logger: testutil.DiscardHandler(), EventHooks: hooks})
	require.NoError(t, err)

	report, err := s.ScanSource(context.Background(), "a.js", []byte("function a() {}"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalFindings)
	hooks.AssertExpectations(t)
}
