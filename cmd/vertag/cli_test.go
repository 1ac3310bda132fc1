package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	cli := &CLI{outStream: &out, errStream: &errOut}
	code := cli.run(args)
	return code, out.String(), errOut.String()
}

func TestRunCLI(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectExit   int
		expectOutput string
		expectError  string
	}{
		{
			name:         "help flag",
			args:         []string{"--help"},
			expectExit:   ExitErr,
			expectOutput: "Usage: vertag",
		},
		{
			name:        "version flag",
			args:        []string{"--version"},
			expectExit:  ExitOK,
			expectError: "vertag version",
		},
		{
			name:         "no operation",
			args:         []string{},
			expectExit:   ExitErr,
			expectOutput: "Usage: vertag",
		},
		{
			name:        "unexpected positional argument",
			args:        []string{"bump"},
			expectExit:  ExitErr,
			expectError: "unexpected argument",
		},
		{
			name:        "unsupported store",
			args:        []string{"--store", "redis://localhost", "--get-version"},
			expectExit:  ExitErr,
			expectError: "unsupported store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, tt.args...)
			if code != tt.expectExit {
				t.Errorf("expected exit %d, got %d", tt.expectExit, code)
			}
			if tt.expectOutput != "" && !strings.Contains(out, tt.expectOutput) {
				t.Errorf("expected output containing %q, got %q", tt.expectOutput, out)
			}
			if tt.expectError != "" && !strings.Contains(errOut, tt.expectError) {
				t.Errorf("expected error containing %q, got %q", tt.expectError, errOut)
			}
		})
	}
}

func TestRunCLIFileStoreFlow(t *testing.T) {
	store := "file://" + t.TempDir()
	key := "myteam/myapp"

	steps := []struct {
		args     []string
		expected string
	}{
		{[]string{"--increment", "z", "--get-version"}, "0.0.1\n"},
		{[]string{"--increment", "z", "--get-version"}, "0.0.2\n"},
		{[]string{"--increment", "y", "--get-version"}, "0.1.0\n"},
		{[]string{"--increment", "x", "--get-version"}, "1.0.0\n"},
		{[]string{"--set-z", "5", "--get-version"}, "1.0.5\n"},
		{[]string{"--reset-z", "--get-version"}, "1.0.0\n"},
		{[]string{"--get-version"}, "1.0.0\n"},
	}

	for _, step := range steps {
		args := append([]string{"--store", store, "--key", key}, step.args...)
		code, out, errOut := runCLI(t, args...)
		if code != ExitOK {
			t.Fatalf("args %v: exit %d, stderr %s", step.args, code, errOut)
		}
		if out != step.expected {
			t.Errorf("args %v: expected %q, got %q", step.args, step.expected, out)
		}
	}
}

func TestRunCLIGetTag(t *testing.T) {
	args := []string{
		"--store", "file://" + t.TempDir(),
		"--key", "myteam/myapp",
		"--set-x", "2", "--set-y", "1", "--set-z", "0",
		"--template", "build-{version}",
		"--get-tag",
	}

	code, out, errOut := runCLI(t, args...)
	if code != ExitOK {
		t.Fatalf("exit %d, stderr %s", code, errOut)
	}
	if out != "build-2.1.0\n" {
		t.Errorf("expected build-2.1.0, got %q", out)
	}
}

func TestRunCLITagTemplateWithoutPlaceholder(t *testing.T) {
	args := []string{
		"--store", "file://" + t.TempDir(),
		"--key", "myapp",
		"--template", "build-latest",
		"--get-tag",
	}

	code, _, errOut := runCLI(t, args...)
	if code != ExitErr {
		t.Fatalf("expected exit %d, got %d", ExitErr, code)
	}
	if !strings.Contains(errOut, "placeholder") {
		t.Errorf("expected placeholder error, got %q", errOut)
	}
}
