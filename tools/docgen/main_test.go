package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/classmart/cmd/cmart/cmd"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		format    string
		wantFiles []string
		wantErr   string
	}{
		{format: "markdown", wantFiles: []string{"cmart.md", "cmart_listings_create.md", "cmart_whoami.md"}},
		{format: "man", wantFiles: []string{"cmart.1", "cmart-listings-watch.1"}},
		{format: "pdf", wantErr: `unknown format "pdf"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			err := generate(cmd.Root(), dir, tt.format)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, name := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(dir, name))
				assert.NoError(t, err, name)
			}
		})
	}
}
