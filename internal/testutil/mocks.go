// Package testutil provides test doubles and fixtures for the docscan library
// and the CLI built on it.
package testutil

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
	"github.com/stretchr/testify/mock"
)

// MockHooks provides a mock implementation of the docscan.Hooks interface.
// Configure expectations using testify/mock methods (e.g., .On("OnFinding", ...).Return(nil)).
type MockHooks struct {
	mock.Mock
}

// OnRunStart mocks the OnRunStart method.
func (m *MockHooks) OnRunStart(mode docscan.Mode, roots []string) error {
	args := m.Called(mode, roots)
	return args.Error(0)
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// OnFileStatusUpdate mocks the OnFileStatusUpdate method.
func (m *MockHooks) OnFileStatusUpdate(path string, status docscan.Status, message string, duration time.Duration) error {
	args := m.Called(path, status, message, duration)
	return args.Error(0)
}

// OnFinding mocks the OnFinding method.
func (m *MockHooks) OnFinding(f finding.Finding) error {
	args := m.Called(f)
	return args.Error(0)
}

// OnProgress mocks the OnProgress method.
func (m *MockHooks) OnProgress(p docscan.Progress) error {
	args := m.Called(p)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report docscan.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

// MockDecoder provides a mock implementation of the encoding.Decoder interface.
type MockDecoder struct {
	mock.Mock
}

// Decode mocks the Decode method.
func (m *MockDecoder) Decode(content []byte) (text string, encodingName string, err error) {
	args := m.Called(content)
	text, _ = args.Get(0).(string)
	encodingName, _ = args.Get(1).(string)
	err = args.Error(2)
	return
}

// IsBinary mocks the IsBinary method.
func (m *MockDecoder) IsBinary(content []byte) bool {
	args := m.Called(content)
	isBinary, _ := args.Get(0).(bool)
	return isBinary
}

// MockWalker provides a mock implementation of the docscan.FileWalker interface.
// Paths configured with Files are delivered in order; Err, when set, is
// returned after them.
type MockWalker struct {
	mock.Mock
	Files []string
}

// Walk mocks the Walk method.
func (m *MockWalker) Walk(ctx context.Context, recursive bool, fn func(path string) error) error {
	args := m.Called(ctx, recursive)
	for _, f := range m.Files {
		if err := fn(f); err != nil {
			return err
		}
	}
	return args.Error(0)
}

// WalkerFactoryFor returns a docscan.WalkerFactory that always yields w.
func WalkerFactoryFor(w docscan.FileWalker) docscan.WalkerFactory {
	return func(root string, opts *docscan.Options, loggerHandler slog.Handler) (docscan.FileWalker, error) {
		return w, nil
	}
}

// MockTUIProgram provides a mock implementation of the hooks.TUIProgram interface.
type MockTUIProgram struct {
	mock.Mock
}

// Send mocks the Send method.
func (m *MockTUIProgram) Send(msg tea.Msg) {
	m.Called(msg)
}

// MockProgressBar provides a mock implementation of the hooks.ProgressBar interface.
type MockProgressBar struct {
	mock.Mock
}

// ChangeMax mocks the ChangeMax method.
func (m *MockProgressBar) ChangeMax(n int) {
	m.Called(n)
}

// Set mocks the Set method.
func (m *MockProgressBar) Set(num int) error {
	args := m.Called(num)
	return args.Error(0)
}

// Describe mocks the Describe method.
func (m *MockProgressBar) Describe(description string) {
	m.Called(description)
}

// Finish mocks the Finish method.
func (m *MockProgressBar) Finish() error {
	args := m.Called()
	return args.Error(0)
}
