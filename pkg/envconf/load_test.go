package envconf

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_RequiredAndDefaults(t *testing.T) {
	type cfg struct {
		Name     string        `env:"ENVCONF_TEST_NAME"`
		Interval time.Duration `env:"ENVCONF_TEST_INTERVAL" envDefault:"5s"`
		Port     uint16        `env:"ENVCONF_TEST_PORT" envDefault:"8080"`
	}

	t.Setenv("ENVCONF_TEST_NAME", "spinbank")

	var c cfg
	if err := Load(&c); err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Name != "spinbank" {
		t.Fatalf("name: want spinbank, got %q", c.Name)
	}
	if c.Interval != 5*time.Second {
		t.Fatalf("interval default: want 5s, got %v", c.Interval)
	}
	if c.Port != 8080 {
		t.Fatalf("port default: want 8080, got %d", c.Port)
	}
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	type cfg struct {
		Interval time.Duration `env:"ENVCONF_TEST_INTERVAL2" envDefault:"5s"`
	}

	t.Setenv("ENVCONF_TEST_INTERVAL2", "250ms")

	var c cfg
	if err := Load(&c); err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Interval != 250*time.Millisecond {
		t.Fatalf("interval: want 250ms, got %v", c.Interval)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	type cfg struct {
		DSN string `env:"ENVCONF_TEST_MISSING_DSN"`
	}

	var c cfg
	err := Load(&c)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}
