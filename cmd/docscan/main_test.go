package main

import (
	"os"
	"testing"
)

// TestMain is needed to run tests
func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
