package dynamic

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type echoTunnel struct{ name string }

func (t *echoTunnel) Init() {}

func (t *echoTunnel) Invoke(route string, req string) string {
	return `{"package":"` + t.name + `","route":"` + route + `","request":` + req + `}`
}

func (t *echoTunnel) Meta() string { return `{"name":"` + t.name + `"}` }

func (t *echoTunnel) Close() {}

func TestResolve(t *testing.T) {
	d := NewDynamic(WithBuiltin("resolve-test", "v1", &echoTunnel{name: "resolve-test"}))

	tunnel, route, err := d.Resolve("/resolve-test/v1/sync/granules")
	if err != nil {
		t.Fatal(err)
	}
	if route != "/sync/granules" {
		t.Errorf("route = %q", route)
	}
	var rsp map[string]any
	if err := json.Unmarshal([]byte(tunnel.Invoke(route, `{}`)), &rsp); err != nil {
		t.Fatal(err)
	}
	if rsp["package"] != "resolve-test" {
		t.Errorf("package = %v", rsp["package"])
	}

	if _, route, err = d.Resolve("resolve-test/v1"); err != nil || route != "/" {
		t.Errorf("bare package path: route %q, err %v", route, err)
	}
	if _, _, err := d.Resolve("/only-one"); err == nil {
		t.Error("a path without a version must be rejected")
	}
}

func TestWithConfig(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(7)

	properties := gopter.NewProperties(parameters)
	properties.Property("config fields land in options", prop.ForAll(
		func(ns, version, local string) bool {
			doc := fmt.Sprintf("warehouse:\n  local: %q\nhandlers:\n  namespace: %q\n  defaultVersion: %q\n  preload:\n    - %q\n    - plain\n    - \"@skipped\"\n",
				local, ns, version, "p@"+version)
			o := NewOptions(WithConfig([]byte(doc)))
			return o.HandlerNamespace == ns &&
				o.HandlerDefaultVersion == version &&
				o.LocalWarehouse == local &&
				len(o.Preload) == 2 &&
				o.Preload[0].Package == "p" && o.Preload[0].Version == version &&
				o.Preload[1].Package == "plain" && o.Preload[1].Version == ""
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Identifier(),
	))
	properties.TestingRun(t)
}

func TestWithConfigInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("invalid YAML must panic")
		}
	}()
	NewOptions(WithConfig([]byte("handlers: [")))
}

func TestMeta(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "earth-cumulus-go-adapter-blue")
	d := &Dynamic{Options: NewOptions(WithWarehouse("/tmp/wh", ""))}

	var meta map[string]json.RawMessage
	if err := json.Unmarshal(d.Meta([]byte(`{"commands":["a"],"service":"ignored"}`)), &meta); err != nil {
		t.Fatal(err)
	}
	var service ServiceInfo
	if err := json.Unmarshal(meta["service"], &service); err != nil {
		t.Fatal(err)
	}
	if service.Business != "earth" || service.Instance != "blue" {
		t.Errorf("service = %+v", service)
	}
	if string(meta["commands"]) != `["a"]` {
		t.Errorf("commands = %s", meta["commands"])
	}

	if got := d.Meta([]byte("not json")); !json.Valid(got) {
		t.Errorf("invalid extra must still yield JSON, got %s", got)
	}
}

func TestParseServiceInfoShortName(t *testing.T) {
	info := parseServiceInfo("solo")
	if info.Business != "solo" || info.Framework != "" || info.Instance != "" {
		t.Errorf("info = %+v", info)
	}
}
