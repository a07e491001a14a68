package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendlens/internal/shared/testutil"
)

func TestFileValidator_ValidateDatasetFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		wantExtErr    bool
		errorContains string
	}{
		{
			name: "csv file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "pets.csv")
				require.NoError(t, os.WriteFile(file, []byte(testutil.PetsCSV), 0644))
				return file
			},
		},
		{
			name: "uppercase xlsx extension",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "pets.XLSX")
				require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
				return file
			},
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "none.csv")
			},
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				dir := filepath.Join(t.TempDir(), "data.csv")
				require.NoError(t, os.Mkdir(dir, 0755))
				return dir
			},
			wantErr:       true,
			errorContains: "is a directory",
		},
		{
			name: "json file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "pets.json")
				require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))
				return file
			},
			wantErr:    true,
			wantExtErr: true,
		},
		{
			name: "excel lock file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "~$pets.xlsx")
				require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
				return file
			},
			wantErr:       true,
			errorContains: "temporary Excel file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewFileValidator(logger)
			err := v.ValidateDatasetFile(tt.setupFunc(t))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantExtErr {
				assert.ErrorIs(t, err, ErrWrongExtension)
			}
			if tt.errorContains != "" {
				assert.Contains(t, err.Error(), tt.errorContains)
			}
		})
	}
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	t.Run("creates missing directory", func(t *testing.T) {
		path := filepath.Join(dir, "reports", "out.xlsx")
		require.NoError(t, v.ValidateOutputFile(path, ".xlsx"))
		assert.DirExists(t, filepath.Join(dir, "reports"))
		assert.NoFileExists(t, filepath.Join(dir, "reports", ".write_test"))
	})

	t.Run("wrong extension", func(t *testing.T) {
		err := v.ValidateOutputFile(filepath.Join(dir, "out.csv"), ".xlsx")
		assert.ErrorIs(t, err, ErrWrongExtension)
	})

	t.Run("directory at path", func(t *testing.T) {
		path := filepath.Join(dir, "taken.csv")
		require.NoError(t, os.Mkdir(path, 0755))
		err := v.ValidateOutputFile(path, ".csv")
		assert.ErrorContains(t, err, "is a directory")
	})
}
