package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "TEST_KEY_UNSET", "default", "", "default"},
		{"returns env value when set", "TEST_KEY_SET", "default", "custom", "custom"},
		{"returns empty string env over default", "TEST_KEY_EMPTY", "default", "", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{"returns default when not set", "TEST_INT_UNSET", 42, "", 42},
		{"parses valid int", "TEST_INT_SET", 42, "7", 7},
		{"returns default on garbage", "TEST_INT_BAD", 42, "not-a-number", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	os.Setenv("TEST_FLOAT_SET", "72.5")
	defer os.Unsetenv("TEST_FLOAT_SET")

	if got := getEnvFloat("TEST_FLOAT_SET", 60); got != 72.5 {
		t.Errorf("getEnvFloat() = %v, want 72.5", got)
	}
	if got := getEnvFloat("TEST_FLOAT_UNSET", 60); got != 60 {
		t.Errorf("getEnvFloat() default = %v, want 60", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	os.Setenv("TEST_BOOL_SET", "true")
	defer os.Unsetenv("TEST_BOOL_SET")

	if got := getEnvBool("TEST_BOOL_SET", false); !got {
		t.Error("getEnvBool() = false, want true")
	}
	if got := getEnvBool("TEST_BOOL_UNSET", true); !got {
		t.Error("getEnvBool() default = false, want true")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.OracleProvider != "claude" {
		t.Errorf("OracleProvider = %q, want claude", cfg.OracleProvider)
	}
	if cfg.NeutralScore != 60 {
		t.Errorf("NeutralScore = %v, want 60", cfg.NeutralScore)
	}
	if cfg.BandExcellent != 85 || cfg.BandProficient != 70 || cfg.BandDeveloping != 50 {
		t.Errorf("band thresholds = %v/%v/%v, want 85/70/50",
			cfg.BandExcellent, cfg.BandProficient, cfg.BandDeveloping)
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Setenv("PORT", "9999")
	os.Setenv("NEUTRAL_SCORE", "50")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("NEUTRAL_SCORE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.NeutralScore != 50 {
		t.Errorf("NeutralScore = %v, want 50", cfg.NeutralScore)
	}
}
