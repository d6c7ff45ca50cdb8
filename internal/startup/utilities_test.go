package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_BOOL_UNSET",
			defaultValue: true,
			want:         true,
			setEnv:       false,
		},
		{
			name:         "Returns default false when env var not set",
			key:          "TEST_BOOL_UNSET2",
			defaultValue: false,
			want:         false,
			setEnv:       false,
		},
		{
			name:         "Returns true when env var is 'true'",
			key:          "TEST_BOOL_TRUE",
			envValue:     "true",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is 'false'",
			key:          "TEST_BOOL_FALSE",
			envValue:     "false",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns true when env var is '1'",
			key:          "TEST_BOOL_ONE",
			envValue:     "1",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is '0'",
			key:          "TEST_BOOL_ZERO",
			envValue:     "0",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns true when env var is 't'",
			key:          "TEST_BOOL_T",
			envValue:     "t",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is 'f'",
			key:          "TEST_BOOL_F",
			envValue:     "f",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns true when env var is 'T'",
			key:          "TEST_BOOL_T_UPPER",
			envValue:     "T",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is 'F'",
			key:          "TEST_BOOL_F_UPPER",
			envValue:     "F",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns true when env var is 'TRUE'",
			key:          "TEST_BOOL_TRUE_UPPER",
			envValue:     "TRUE",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is 'FALSE'",
			key:          "TEST_BOOL_FALSE_UPPER",
			envValue:     "FALSE",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is invalid",
			key:          "TEST_BOOL_INVALID",
			envValue:     "not-a-bool",
			defaultValue: true,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is empty string",
			key:          "TEST_BOOL_EMPTY",
			envValue:     "",
			defaultValue: false,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns default when env var has spaces",
			key:          "TEST_BOOL_SPACES",
			envValue:     "   ",
			defaultValue: true,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is 'yes'",
			key:          "TEST_BOOL_YES",
			envValue:     "yes",
			defaultValue: false,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is 'no'",
			key:          "TEST_BOOL_NO",
			envValue:     "no",
			defaultValue: true,
			want:         true,
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v (env: %q)", tt.key, tt.defaultValue, got, tt.want, tt.envValue)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		want         time.Duration
		setEnv       bool
	}{
		{name: "Returns default when env var not set", defaultValue: time.Minute, want: time.Minute},
		{name: "Parses Go duration", envValue: "90s", defaultValue: time.Minute, want: 90 * time.Second, setEnv: true},
		{name: "Parses zero", envValue: "0", defaultValue: time.Minute, want: 0, setEnv: true},
		{name: "Returns default when invalid", envValue: "soon", defaultValue: time.Minute, want: time.Minute, setEnv: true},
		{name: "Returns default when negative", envValue: "-5m", defaultValue: time.Minute, want: time.Minute, setEnv: true},
		{name: "Returns default when empty", envValue: "", defaultValue: time.Hour, want: time.Hour, setEnv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_DURATION_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvDuration(key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestEnsureDirectory(t *testing.T) {
	root := t.TempDir()

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(root, "a", "b")
		if err := ensureDirectory(dir, "test"); err != nil {
			t.Fatalf("ensureDirectory() error = %v", err)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s was not created", dir)
		}
	})

	t.Run("accepts existing directory", func(t *testing.T) {
		if err := ensureDirectory(root, "test"); err != nil {
			t.Errorf("ensureDirectory() error = %v", err)
		}
	})

	t.Run("rejects regular file", func(t *testing.T) {
		file := filepath.Join(root, "plain")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ensureDirectory(file, "test"); err == nil {
			t.Error("ensureDirectory() on a file should fail")
		}
	})
}

func TestTestWriteAccess(t *testing.T) {
	dir := t.TempDir()
	if err := testWriteAccess(dir); err != nil {
		t.Fatalf("testWriteAccess() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write test file should be removed")
	}

	if err := testWriteAccess(filepath.Join(dir, "missing")); err == nil {
		t.Error("testWriteAccess() on a missing directory should fail")
	}
}

func TestSetupOptionalDir(t *testing.T) {
	root := t.TempDir()
	if !setupOptionalDir(filepath.Join(root, "badger"), "badger cache") {
		t.Error("setupOptionalDir() = false for a writable location")
	}

	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if setupOptionalDir(filepath.Join(blocker, "badger"), "badger cache") {
		t.Error("setupOptionalDir() = true below a regular file")
	}
}

func TestTTLString(t *testing.T) {
	if got := ttlString(0); got != "none (entries never expire)" {
		t.Errorf("ttlString(0) = %q", got)
	}
	if got := ttlString(2 * time.Hour); got != "2h0m0s" {
		t.Errorf("ttlString(2h) = %q", got)
	}
}

func TestEnabledString(t *testing.T) {
	if enabledString(true) != "ENABLED" || enabledString(false) != "DISABLED" {
		t.Error("enabledString() returned unexpected values")
	}
}

func TestCheckToolsMissing(t *testing.T) {
	status := CheckTools(&Config{
		DjvudumpPath: "definitely-not-djvudump",
		DjvutxtPath:  "",
	})
	if status.Djvudump != "" || status.Djvutxt != "" {
		t.Errorf("CheckTools() = %+v, want both tools missing", status)
	}
}

func TestBuildInfoStruct(t *testing.T) {
	info := BuildInfo{
		Version:   "1.0.0",
		Commit:    "abc123",
		BuildTime: "2026-01-01",
		GoVersion: "go1.25.0",
		OS:        "linux",
		Arch:      "amd64",
	}

	if info.Version != "1.0.0" || info.Commit != "abc123" || info.BuildTime != "2026-01-01" {
		t.Errorf("unexpected build info: %+v", info)
	}
}

func BenchmarkGetEnv(b *testing.B) {
	b.Setenv("BENCH_TEST_VAR", "test-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = getEnv("BENCH_TEST_VAR", "default")
	}
}

func BenchmarkGetEnvBool(b *testing.B) {
	b.Setenv("BENCH_TEST_BOOL", "true")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = getEnvBool("BENCH_TEST_BOOL", false)
	}
}

func BenchmarkGetEnvDuration(b *testing.B) {
	b.Setenv("BENCH_TEST_DURATION", "15m")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = getEnvDuration("BENCH_TEST_DURATION", time.Minute)
	}
}
