package run_test

import (
	"errors"
	"testing"

	"dispatcher/internal/run"
	"dispatcher/internal/services"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		raw  string
		want run.Mode
	}{
		{"dispatch", run.ModeDispatch},
		{"DISPATCH", run.ModeDispatch},
		{"dispatch_1", run.ModeDispatch},
		{"clean", run.ModeClean},
		{" clean ", run.ModeClean},
		{"cleanup", run.ModeClean},
	}
	for _, tc := range cases {
		got, err := run.ParseMode(tc.raw)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMode(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseModeUnknown(t *testing.T) {
	_, err := run.ParseMode("analyze")
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestDatasetPath(t *testing.T) {
	if got := run.DatasetPath(true, "my-bucket/", "ds_stitched"); got != "s3://my-bucket/ds_stitched" {
		t.Fatalf("cloud path = %q", got)
	}
	if got := run.DatasetPath(false, "/srv/output", "ds_stitched"); got != "/srv/output/ds_stitched" {
		t.Fatalf("local path = %q", got)
	}
}
