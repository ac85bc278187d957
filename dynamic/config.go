package dynamic

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// yamlDynamicConfig is the dynamic section:
//
//	toolchain: {os: linux, arch: amd64, compiler: go1.24, variant: plugin}
//	warehouse: {local: /opt/warehouse, remote: s3://bucket/warehouse}
//	handlers:
//	  namespace: cumulus
//	  defaultVersion: v1
//	  preload: [sync-granule@v3, move-granules]
type yamlDynamicConfig struct {
	Toolchain struct {
		OS       string `yaml:"os"`
		Arch     string `yaml:"arch"`
		Compiler string `yaml:"compiler"`
		Variant  string `yaml:"variant"`
	} `yaml:"toolchain"`
	Warehouse struct {
		Local  string `yaml:"local"`
		Remote string `yaml:"remote"`
	} `yaml:"warehouse"`
	Handlers struct {
		Namespace      string   `yaml:"namespace"`
		DefaultVersion string   `yaml:"defaultVersion"`
		Preload        []string `yaml:"preload"`
	} `yaml:"handlers"`
}

// splitHandler splits "package@version". A missing version is left empty
// and resolved by the loader's default version.
func splitHandler(ref string) (pkg, version string) {
	pkg, version, _ = strings.Cut(strings.TrimSpace(ref), "@")
	return pkg, version
}

// WithConfig parses the dynamic section and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	var cfg yamlDynamicConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("dynamic.WithConfig: %w", err))
		})
	}

	return OptionFunc(func(o *Options) {
		o.Toolchain = Toolchain{
			OS:       cfg.Toolchain.OS,
			Arch:     cfg.Toolchain.Arch,
			Compiler: cfg.Toolchain.Compiler,
			Variant:  cfg.Toolchain.Variant,
		}
		o.LocalWarehouse = cfg.Warehouse.Local
		o.RemoteWarehouse = cfg.Warehouse.Remote
		o.HandlerNamespace = cfg.Handlers.Namespace
		o.HandlerDefaultVersion = cfg.Handlers.DefaultVersion

		for _, ref := range cfg.Handlers.Preload {
			if pkg, version := splitHandler(ref); pkg != "" {
				o.Preload = append(o.Preload, &Package{Package: pkg, Version: version})
			}
		}
	})
}

// WithConfigFile loads a YAML file and applies it to Options.
// It panics if the file cannot be read or YAML is invalid.
func WithConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("dynamic.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}
