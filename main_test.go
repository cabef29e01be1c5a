package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		file    string
		want    string
		wantErr bool
	}{
		{name: "default", want: "text"},
		{name: "explicit", format: "json", file: "out.csv", want: "json"},
		{name: "inferred", file: "prices.csv", want: "csv"},
		{name: "unknown extension", file: "prices.xlsx", want: "text"},
		{name: "chart", format: "chart", file: "chart.html", want: "chart"},
		{name: "invalid", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.format, tt.file)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
