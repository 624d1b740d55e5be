package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmployeeExporter(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(DefaultExportTemplate), 0o600))

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("sheets: []"), 0o600))

	testCases := map[string]struct {
		path    string
		wantErr bool
	}{
		"default template": {path: ""},
		"template file":    {path: valid},
		"invalid template": {path: invalid, wantErr: true},
		"missing file":     {path: filepath.Join(dir, "missing.yaml"), wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			exporter, err := NewEmployeeExporter(tc.path)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, exporter)
		})
	}
}
