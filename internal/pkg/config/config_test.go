package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("TRACKCLUSTER_ANALYSIS_TOLERANCE", "")
	cfg, err := LoadFile("trackcluster-test", writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Export.Workers)
	assert.Equal(t, "analysis-queue", cfg.Temporal.TaskQueue)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "trackcluster-test", cfg.Telemetry.ServiceName)
	assert.Empty(t, cfg.Analysis.Tolerance)

	_, err = cfg.Analysis.ToleranceValue()
	assert.Error(t, err, "tolerance has no default")
}

func TestLoadFile_ToleranceFromFileAndEnv(t *testing.T) {
	path := writeConfig(t, "analysis:\n  tolerance: \"0.0005\"\n  compound: true\n")

	cfg, err := LoadFile("test", path)
	require.NoError(t, err)
	tol, err := cfg.Analysis.ToleranceValue()
	require.NoError(t, err)
	assert.Equal(t, "0.0005", tol.String())
	assert.True(t, cfg.Analysis.Compound)

	t.Setenv("TRACKCLUSTER_ANALYSIS_TOLERANCE", "0.007")
	cfg, err = LoadFile("test", path)
	require.NoError(t, err)
	assert.Equal(t, "0.007", cfg.Analysis.Tolerance)
}

func TestLoadFile_InvalidValues(t *testing.T) {
	path := writeConfig(t, "analysis:\n  tolerance: \"-1\"\nexport:\n  workers: 0\nlog:\n  format: xml\n")

	_, err := LoadFile("test", path)
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "config validation failed:"))
	assert.Contains(t, msg, "analysis.tolerance must not be negative")
	assert.Contains(t, msg, "export.workers must be positive")
	assert.Contains(t, msg, "log.format must be json or text")
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile("test", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseTolerance(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0.0005", want: "0.0005"},
		{in: " 0.007 ", want: "0.007"},
		{in: "0", want: "0"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-0.1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTolerance(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
