package hooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stackvity/doc-scanner/internal/testutil"
	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var sampleFinding = finding.Finding{Category: finding.MissingFunctionDoc, File: "src/a.js", Line: 7}

func TestCLIHooks_OnFileDiscovered(t *testing.T) {
	testPath := "src/main.js"

	t.Run("TUI Enabled", func(t *testing.T) {
		mockTUI := new(testutil.MockTUIProgram)
		mockTUI.On("Send", FileDiscoveredMsg{Path: testPath}).Once()

		logBuf := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(logBuf), true, false, mockTUI, nil, nil, nil)
		require.NoError(t, hooks.OnFileDiscovered(testPath))
		mockTUI.AssertExpectations(t)
		assert.Empty(t, logBuf.String())
	})

	t.Run("Verbose Enabled", func(t *testing.T) {
		mockTUI := new(testutil.MockTUIProgram)
		logBuf := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(logBuf), false, true, mockTUI, nil, nil, nil)
		require.NoError(t, hooks.OnFileDiscovered(testPath))

		mockTUI.AssertNotCalled(t, "Send", mock.Anything)
		logOutput := logBuf.String()
		assert.Contains(t, logOutput, `"level":"DEBUG"`)
		assert.Contains(t, logOutput, `"msg":"File discovered"`)
		assert.Contains(t, logOutput, `"path":"`+testPath+`"`)
	})

	t.Run("Neither TUI nor Verbose Enabled", func(t *testing.T) {
		logBuf := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(logBuf), false, false, nil, nil, nil, nil)
		require.NoError(t, hooks.OnFileDiscovered(testPath))
		assert.Empty(t, logBuf.String())
	})
}

func TestCLIHooks_OnFileStatusUpdate(t *testing.T) {
	testPath := "src/file.py"
	testDuration := 50 * time.Millisecond

	t.Run("TUI Enabled", func(t *testing.T) {
		mockTUI := new(testutil.MockTUIProgram)
		mockTUI.On("Send", mock.MatchedBy(func(msg FileStatusUpdateMsg) bool {
			return msg.Path == testPath &&
				msg.Status == docscan.StatusScanned &&
				msg.Duration == testDuration
		})).Once()

		logBuf := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(logBuf), true, false, mockTUI, nil, nil, nil)
		require.NoError(t, hooks.OnFileStatusUpdate(testPath, docscan.StatusScanned, "", testDuration))
		mockTUI.AssertExpectations(t)
		assert.Empty(t, logBuf.String())
	})

	t.Run("Verbose Enabled", func(t *testing.T) {
		testCases := []struct {
			status        docscan.Status
			message       string
			expectedLevel string
			expectedMsg   string
			checkKey      string
		}{
			{docscan.StatusScanning, "", "DEBUG", "File status updated", ""},
			{docscan.StatusScanned, "", "INFO", "File status updated", ""},
			{docscan.StatusSkipped, docscan.SkipReasonBinary, "INFO", "File status updated", "message"},
			{docscan.StatusFailed, "permission denied", "ERROR", "File scan failed", "error"},
		}

		for _, tc := range testCases {
			t.Run(string(tc.status), func(t *testing.T) {
				logBuf := &bytes.Buffer{}
				hooks := NewCLIHooks(newJSONLogger(logBuf), false, true, nil, nil, nil, nil)
				require.NoError(t, hooks.OnFileStatusUpdate(testPath, tc.status, tc.message, testDuration))

				logOutput := logBuf.String()
				assert.Contains(t, logOutput, `"level":"`+tc.expectedLevel+`"`)
				assert.Contains(t, logOutput, `"msg":"`+tc.expectedMsg+`"`)
				assert.Contains(t, logOutput, `"status":"`+string(tc.status)+`"`)
				if tc.checkKey != "" {
					assert.Contains(t, logOutput, `"`+tc.checkKey+`":"`+tc.message+`"`)
				}
			})
		}
	})

	t.Run("Quiet mode logs failures only", func(t *testing.T) {
		logBuf := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(logBuf), false, false, nil, nil, nil, nil)

		require.NoError(t, hooks.OnFileStatusUpdate(testPath, docscan.StatusScanned, "", testDuration))
		assert.Empty(t, logBuf.String())

		require.NoError(t, hooks.OnFileStatusUpdate(testPath, docscan.StatusFailed, "boom", 0))
		assert.Contains(t, logBuf.String(), `"error":"boom"`)
	})
}

func TestCLIHooks_OnFinding(t *testing.T) {
	t.Run("TUI Enabled", func(t *testing.T) {
		mockTUI := new(testutil.MockTUIProgram)
		mockTUI.On("Send", FindingMsg{Finding: sampleFinding}).Once()

		out := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), true, false, mockTUI, nil, out, nil)
		require.NoError(t, hooks.OnFinding(sampleFinding))
		mockTUI.AssertExpectations(t)
		assert.Empty(t, out.String(), "TUI mode never writes to the stream")
	})

	t.Run("Streams with default format", func(t *testing.T) {
		out := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), false, false, nil, nil, out, nil)
		assert.True(t, hooks.Streaming())

		require.NoError(t, hooks.OnFinding(sampleFinding))
		require.NoError(t, hooks.OnFinding(finding.Finding{Category: finding.MissingHeader, File: "src/a.js", Line: 1}))

		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, sampleFinding.String(), lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "Missing {Header} Doc"))
	})

	t.Run("Custom format", func(t *testing.T) {
		out := &bytes.Buffer{}
		format := func(f finding.Finding) string { return "F:" + f.File }
		hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), false, false, nil, nil, out, format)
		require.NoError(t, hooks.OnFinding(sampleFinding))
		assert.Equal(t, "F:src/a.js\n", out.String())
	})

	t.Run("Stream write error is returned", func(t *testing.T) {
		hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), false, false, nil, nil, failingWriter{}, nil)
		err := hooks.OnFinding(sampleFinding)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "writing finding line")
	})

	t.Run("No stream", func(t *testing.T) {
		hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), false, false, nil, nil, nil, nil)
		assert.False(t, hooks.Streaming())
		assert.NoError(t, hooks.OnFinding(sampleFinding))
	})
}

func TestCLIHooks_OnProgress(t *testing.T) {
	p := docscan.Progress{Done: 1, Total: 4, Increment: 25, Percent: 25, Path: "a.js"}

	mockTUI := new(testutil.MockTUIProgram)
	mockTUI.On("Send", ProgressMsg{Progress: p}).Once()
	hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), true, false, mockTUI, nil, nil, nil)
	require.NoError(t, hooks.OnProgress(p))
	mockTUI.AssertExpectations(t)

	logBuf := &bytes.Buffer{}
	verbose := NewCLIHooks(newJSONLogger(logBuf), false, true, nil, nil, nil, nil)
	require.NoError(t, verbose.OnProgress(p))
	assert.Contains(t, logBuf.String(), `"percent":"25.0"`)
}

func TestCLIHooks_RunLifecycle(t *testing.T) {
	report := docscan.Report{Summary: docscan.ReportSummary{Mode: docscan.ModeTree, Complete: true, TotalFiles: 3}}

	t.Run("TUI Enabled", func(t *testing.T) {
		mockTUI := new(testutil.MockTUIProgram)
		mockTUI.On("Send", RunStartMsg{Mode: docscan.ModeTree, Roots: []string{"/src"}}).Once()
		mockTUI.On("Send", RunCompleteMsg{Report: report}).Once()

		hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), true, false, mockTUI, nil, nil, nil)
		require.NoError(t, hooks.OnRunStart(docscan.ModeTree, []string{"/src"}))
		require.NoError(t, hooks.OnRunComplete(report))
		mockTUI.AssertExpectations(t)
	})

	t.Run("Verbose Enabled", func(t *testing.T) {
		logBuf := &bytes.Buffer{}
		hooks := NewCLIHooks(newJSONLogger(logBuf), false, true, nil, nil, nil, nil)
		require.NoError(t, hooks.OnRunStart(docscan.ModeTree, []string{"/src"}))
		require.NoError(t, hooks.OnRunComplete(report))
		assert.Contains(t, logBuf.String(), `"msg":"Scan started"`)
		assert.Contains(t, logBuf.String(), `"msg":"Scan complete"`)
		assert.Contains(t, logBuf.String(), `"files":3`)
	})
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed pipe") }

func TestCLIHooks_ProgressBar(t *testing.T) {
	bar := new(testutil.MockProgressBar)
	bar.On("ChangeMax", 2).Once()
	bar.On("Describe", "a.js").Once()
	bar.On("Set", 1).Return(nil).Once()
	bar.On("Describe", "b.py").Once()
	bar.On("Set", 2).Return(nil).Once()
	bar.On("Finish").Return(nil).Once()

	hooks := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), false, false, nil, bar, nil, nil)
	require.NoError(t, hooks.OnProgress(docscan.Progress{Done: 1, Total: 2, Percent: 50, Path: "/src/a.js"}))
	require.NoError(t, hooks.OnProgress(docscan.Progress{Done: 2, Total: 2, Percent: 100, Path: "/src/b.py"}))
	require.NoError(t, hooks.OnRunComplete(docscan.Report{}))
	bar.AssertExpectations(t)

	t.Run("verbose mode logs instead", func(t *testing.T) {
		unused := new(testutil.MockProgressBar)
		verbose := NewCLIHooks(newJSONLogger(&bytes.Buffer{}), false, true, nil, unused, nil, nil)
		require.NoError(t, verbose.OnProgress(docscan.Progress{Done: 1, Total: 1, Path: "a.js"}))
		require.NoError(t, verbose.OnRunComplete(docscan.Report{}))
		unused.AssertNotCalled(t, "Set", mock.Anything)
		unused.AssertNotCalled(t, "Finish")
	})
}
