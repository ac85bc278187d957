package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aura-studio/message-adapter/adapter"
	"github.com/aura-studio/message-adapter/http"
	"github.com/aura-studio/message-adapter/invoke"
	"github.com/aura-studio/message-adapter/sqs"
)

const serveConfig = `
mode: sqs
adapter:
  mode:
    testing: true
sqs:
  partialMode: true
invoke:
  mode:
    debug: true
http:
  address: ":9090"
`

func TestWithServeConfigSelectsMode(t *testing.T) {
	o := NewOptions(WithServeConfig([]byte(serveConfig)))
	if o.Mode != ModeSQS {
		t.Fatalf("mode = %q, want %q", o.Mode, ModeSQS)
	}

	e := sqs.NewEngine(o.SQS...)
	if !e.PartialMode {
		t.Error("sqs section not applied")
	}
	if !e.Task().DebugMode {
		t.Error("invoke section not applied to the sqs task")
	}
	if !e.Task().Adapter().TestingMode {
		t.Error("adapter section not applied to the sqs task")
	}

	h := http.NewEngine(o.HTTP...)
	if h.Address != ":9090" {
		t.Errorf("http address = %q", h.Address)
	}
}

func TestDefaultMode(t *testing.T) {
	if o := NewOptions(WithServeConfig([]byte("adapter: {}\n"))); o.Mode != ModeInvoke {
		t.Fatalf("mode = %q, want %q", o.Mode, ModeInvoke)
	}
	if o := NewOptions(WithServeConfig([]byte("mode: sqs\n")), WithMode(ModeHTTP)); o.Mode != ModeHTTP {
		t.Fatalf("later option must win, mode = %q", o.Mode)
	}
}

func TestWithServeConfigInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("invalid YAML must panic")
		}
	}()
	WithServeConfig([]byte("mode: [unterminated"))
}

func TestWithAdapterReachesEveryMode(t *testing.T) {
	o := NewOptions(WithAdapter(adapter.WithTestingMode(true)), WithAdapter(adapter.WithDebugMode(true)))

	if !invoke.NewEngine(o.Invoke...).Adapter().DebugMode {
		t.Error("invoke adapter missing option")
	}
	if !sqs.NewEngine(o.SQS...).Task().Adapter().DebugMode {
		t.Error("sqs adapter missing option")
	}
	if !http.NewEngine(o.HTTP...).Adapter().DebugMode {
		t.Error("http adapter missing option")
	}
}

func TestServeUnknownMode(t *testing.T) {
	if err := Serve(WithMode("grpc")); err == nil {
		t.Fatal("unknown mode must fail")
	}
}

func TestAdapterConfig(t *testing.T) {
	opt, err := AdapterConfig([]byte(serveConfig))
	if err != nil {
		t.Fatal(err)
	}
	if o := adapter.NewOptions(opt); !o.TestingMode {
		t.Fatal("adapter section not applied")
	}

	opt, err = AdapterConfig([]byte("mode: http\n"))
	if err != nil || opt != nil {
		t.Fatalf("no adapter section: opt = %v, err = %v", opt, err)
	}

	if _, err := AdapterConfig([]byte("mode: [unterminated")); err == nil {
		t.Fatal("invalid YAML must fail")
	}
}

func TestFindDefaultConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if err := os.WriteFile(filepath.Join(dir, "server.yml"), []byte("mode: http\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := FindDefaultConfigFile()
	if err != nil || p != "server.yml" {
		t.Fatalf("found %q, err = %v", p, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "message-adapter.yaml"), []byte("mode: sqs\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err = FindDefaultConfigFile()
	if err != nil || p != "message-adapter.yaml" {
		t.Fatalf("found %q, err = %v, want message-adapter.yaml first", p, err)
	}

	if o := NewOptions(WithServeConfigFile(p)); o.Mode != ModeSQS {
		t.Fatalf("mode = %q", o.Mode)
	}
}
