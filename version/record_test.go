package version

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecordString(t *testing.T) {
	tests := []struct {
		record   Record
		expected string
	}{
		{Record{}, "0.0.0"},
		{Record{X: 1}, "1.0.0"},
		{Record{X: 2, Y: 1, Z: 0}, "2.1.0"},
		{Record{X: 10, Y: 20, Z: 300}, "10.20.300"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.record.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		str      string
		expected Record
		ok       bool
	}{
		{"0.0.0", Record{}, true},
		{"1.2.3", Record{X: 1, Y: 2, Z: 3}, true},
		{"v1.2.3", Record{}, false},
		{"1.2", Record{}, false},
		{"1.2.3-rc.1", Record{}, false},
		{"latest", Record{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			got, ok := Parse(tt.str)
			if ok != tt.ok {
				t.Fatalf("expected ok %t, got %t", tt.ok, ok)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestBump(t *testing.T) {
	tests := []struct {
		desc      string
		record    Record
		component string
		expected  Record
		expectErr bool
	}{
		{"x resets y and z", Record{X: 1, Y: 4, Z: 9}, "x", Record{X: 2}, false},
		{"y keeps x, resets z", Record{X: 1, Y: 4, Z: 9}, "y", Record{X: 1, Y: 5}, false},
		{"z keeps x and y", Record{X: 1, Y: 4, Z: 9}, "z", Record{X: 1, Y: 4, Z: 10}, false},
		{"z from zero record", Record{}, "z", Record{Z: 1}, false},
		{"unknown component", Record{X: 1}, "w", Record{X: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := tt.record.Bump(tt.component)
			if tt.expectErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestResetZ(t *testing.T) {
	got := Record{X: 3, Y: 2, Z: 9}.ResetZ()
	expected := Record{X: 3, Y: 2}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Error(diff)
	}
}

func intp(i int) *int {
	return &i
}

func TestMerge(t *testing.T) {
	tests := []struct {
		desc      string
		record    Record
		x, y, z   *int
		expected  Record
		expectErr bool
	}{
		{"all components", Record{X: 1, Y: 2, Z: 3}, intp(7), intp(8), intp(9), Record{X: 7, Y: 8, Z: 9}, false},
		{"x only leaves y and z", Record{X: 1, Y: 2, Z: 3}, intp(5), nil, nil, Record{X: 5, Y: 2, Z: 3}, false},
		{"z only", Record{X: 1, Y: 0, Z: 0}, nil, nil, intp(5), Record{X: 1, Y: 0, Z: 5}, false},
		{"nothing supplied", Record{X: 1, Y: 2, Z: 3}, nil, nil, nil, Record{X: 1, Y: 2, Z: 3}, false},
		{"negative is rejected", Record{X: 1}, nil, intp(-1), nil, Record{X: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := tt.record.Merge(tt.x, tt.y, tt.z)
			if tt.expectErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestTag(t *testing.T) {
	record := Record{X: 2, Y: 1, Z: 0}
	tc := TagContext{Repo: "myteam/myapp", Commit: "abc1234", Timestamp: 1700000000}

	tests := []struct {
		desc      string
		template  string
		expected  string
		expectErr bool
	}{
		{"version only", "build-{version}", "build-2.1.0", false},
		{"full build metadata", "{repo}-{commit}-{timestamp}-{version}", "myteam/myapp-abc1234-1700000000-2.1.0", false},
		{"no version placeholder", "build-{commit}", "", true},
		{"empty template", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := record.Tag(tt.template, tc)
			if tt.expectErr {
				var cerr *ConfigError
				if !errors.As(err, &cerr) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
