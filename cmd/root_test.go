package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/ca-srg/fluentsearch/internal/metrics"
)

func TestTrackedCommand(t *testing.T) {
	tests := []struct {
		name  string
		cmd   *cobra.Command
		want  metrics.Command
		track bool
	}{
		{"search", searchCmd, metrics.CommandSearch, true},
		{"nested index command", indexCreateCmd, metrics.CommandIndex, true},
		{"nested docs command", docsDeleteCmd, metrics.CommandDocs, true},
		{"stats is not tracked", statsCmd, "", false},
		{"root is not tracked", rootCmd, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := trackedCommand(tt.cmd)
			assert.Equal(t, tt.track, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf, map[metrics.Command]metrics.Usage{
		metrics.CommandSearch: {Command: metrics.CommandSearch, Count: 12, Failures: 2},
	})

	out := buf.String()
	assert.Contains(t, out, "COMMAND")
	assert.Regexp(t, `search\s+12\s+2`, out)
	assert.Regexp(t, `index\s+0\s+0`, out)
}

func TestPrintIndexUsage(t *testing.T) {
	var buf bytes.Buffer
	printIndexUsage(&buf, map[string]int64{"orders": 1, "goods": 3, "": 2})

	out := buf.String()
	assert.Contains(t, out, "INDEX")
	assert.Regexp(t, `(?s)-\s+2\n.*goods\s+3\n.*orders\s+1\n`, out)
}

func TestPrintDayUsage(t *testing.T) {
	var buf bytes.Buffer
	printDayUsage(&buf, "2026-03-01", map[metrics.Command]int64{metrics.CommandDocs: 4})

	out := buf.String()
	assert.Contains(t, out, "2026-03-01")
	assert.Regexp(t, `docs\s+4`, out)
	assert.Regexp(t, `search\s+0`, out)
}
