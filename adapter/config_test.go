package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestWithConfig(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("parsed options match the YAML document", prop.ForAll(
		func(debug bool, maxSize int64, alias, command string) bool {
			doc := fmt.Sprintf("mode:\n  debug: %t\n  testing: true\nremote:\n  maxSize: %d\n  fixtures: fx\nstaticLink:\n  - alias: %q\n    command: %q\n", debug, maxSize, alias, command)
			o := NewOptions(WithConfig([]byte(doc)))
			return o.DebugMode == debug &&
				o.TestingMode &&
				o.RemoteMaxSize == maxSize &&
				o.FixturesDir == "fx" &&
				o.StaticLinkMap[alias] == command &&
				o.StaticLinkMap["create_next_event"] == CommandCreateNextEvent
		},
		gen.Bool(),
		gen.Int64Range(0, 1<<30),
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestWithConfigInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("invalid YAML must panic")
		}
	}()
	NewOptions(WithConfig([]byte("mode: [unterminated")))
}

func TestWithConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "adapter.yaml")
	if err := os.WriteFile(p, []byte("mode:\n  debug: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if o := NewOptions(WithConfigFile(p)); !o.DebugMode {
		t.Fatal("debug mode not applied")
	}
}

func TestTestingModeFromEnvironment(t *testing.T) {
	t.Setenv(EnvName, "testing")
	if o := NewOptions(); !o.TestingMode {
		t.Fatal("CUMULUS_ENV=testing must select testing mode")
	}
	if o := NewOptions(WithTestingMode(false)); o.TestingMode {
		t.Fatal("explicit option must override the environment")
	}
}

func TestDefaultOptionsAreNotShared(t *testing.T) {
	a := NewOptions(WithStaticLink("x", "y"))
	b := NewOptions()
	if _, ok := b.StaticLinkMap["x"]; ok {
		t.Fatal("options leaked between instances")
	}
	if a.StaticLinkMap["x"] != "y" {
		t.Fatal("static link not applied")
	}
}
