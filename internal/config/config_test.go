package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Test Types
	type (
		given struct {
			env map[string]string
		}
		want struct {
			cfg Config
			err error
		}
	)

	// Test Cases
	tests := []struct {
		name  string
		given given
		want  want
	}{
		{
			name:  "uses defaults when nothing is set",
			given: given{env: map[string]string{}},
			want: want{cfg: Config{
				LogLevel:  "info",
				LogFormat: "console",
				Name:      "CountingSM",
			}},
		},
		{
			name: "reads all variables",
			given: given{env: map[string]string{
				"STATEMACHINE_LOG_LEVEL":  "debug",
				"STATEMACHINE_LOG_FORMAT": "json",
				"STATEMACHINE_NAME":       "Demo",
				"STATEMACHINE_METRICS":    "true",
				"STATEMACHINE_TRACE":      "true",
			}},
			want: want{cfg: Config{
				LogLevel:  "debug",
				LogFormat: "json",
				Name:      "Demo",
				Metrics:   true,
				Trace:     true,
			}},
		},
		{
			name:  "rejects unparsable bool",
			given: given{env: map[string]string{"STATEMACHINE_METRICS": "maybe"}},
			want:  want{err: ErrParsingConfig},
		},
		{
			name:  "rejects unknown log format",
			given: given{env: map[string]string{"STATEMACHINE_LOG_FORMAT": "xml"}},
			want:  want{err: ErrInvalidConfig},
		},
		{
			name:  "rejects unknown log level",
			given: given{env: map[string]string{"STATEMACHINE_LOG_LEVEL": "loud"}},
			want:  want{err: ErrInvalidConfig},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			/* ---------------------------------- Given --------------------------------- */
			require := require.New(t)
			for _, key := range []string{"STATEMACHINE_LOG_LEVEL", "STATEMACHINE_LOG_FORMAT", "STATEMACHINE_NAME", "STATEMACHINE_METRICS", "STATEMACHINE_TRACE"} {
				t.Setenv(key, "")
				require.NoError(os.Unsetenv(key))
			}
			for k, v := range tt.given.env {
				t.Setenv(k, v)
			}

			/* ---------------------------------- When ---------------------------------- */
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

			/* ---------------------------------- Then ---------------------------------- */
			if tt.want.err != nil {
				require.ErrorIs(err, tt.want.err)
				return
			}
			require.NoError(err)
			require.Equal(tt.want.cfg, cfg)
		})
	}
}

func TestLoad_ReadsDotEnvFile(t *testing.T) {
	require := require.New(t)
	t.Setenv("STATEMACHINE_NAME", "")
	require.NoError(os.Unsetenv("STATEMACHINE_NAME"))
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(os.WriteFile(path, []byte("STATEMACHINE_NAME=FromFile\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("STATEMACHINE_NAME") })

	cfg, err := Load(path)

	require.NoError(err)
	require.Equal("FromFile", cfg.Name)
}

func TestConfig_Validate(t *testing.T) {
	require := require.New(t)
	valid := Config{LogLevel: "warn", LogFormat: "json", Name: "Demo"}
	require.NoError(valid.Validate())

	noName := valid
	noName.Name = ""
	err := noName.Validate()
	require.ErrorIs(err, ErrInvalidConfig)
	require.ErrorContains(err, "Name")

	badLevel := valid
	badLevel.LogLevel = "verbose"
	require.ErrorIs(badLevel.Validate(), ErrInvalidConfig)
}
