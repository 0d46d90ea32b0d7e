package pit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "export.CSV")
	if err := os.WriteFile(csvFile, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	type files struct {
		Paths []string `validate:"min=1,dive,file,ext=.csv"`
	}
	type credentials struct {
		Token   string `validate:"required"`
		QueryID string `validate:"required"`
	}
	type entry struct {
		Year   string `validate:"required,numeric,len=4"`
		Amount string `validate:"numeric"`
	}

	tests := []struct {
		name    string
		config  any
		wantErr bool
	}{
		{"csv file", files{Paths: []string{csvFile}}, false},
		{"no file", files{}, true},
		{"missing file", files{Paths: []string{filepath.Join(dir, "missing.csv")}}, true},
		{"wrong extension", files{Paths: []string{dir}}, true},
		{"credentials", credentials{Token: "t", QueryID: "q"}, false},
		{"empty token", credentials{QueryID: "q"}, true},
		{"entry", entry{Year: "2024", Amount: "12.5"}, false},
		{"year not numeric", entry{Year: "20x4", Amount: "1"}, true},
		{"amount not numeric", entry{Year: "2024", Amount: "1,5"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.config); (err != nil) != tt.wantErr {
				t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.config, err, tt.wantErr)
			}
		})
	}
}
