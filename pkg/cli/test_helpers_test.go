package cli

import (
	"bytes"
	"os"
	"testing"
)

// captureStdout points os.Stdout at a pipe until the returned func is
// called, which restores it and returns what the commands printed. The pipe
// is drained concurrently so large summaries cannot fill its buffer.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = orig })

	var buf bytes.Buffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		_, _ = buf.ReadFrom(r)
	}()

	return func() string {
		_ = w.Close()
		<-drained
		_ = r.Close()
		os.Stdout = orig
		return buf.String()
	}
}
