package dynamic

import (
	"fmt"
	"log"
	"strings"

	"github.com/aura-studio/dynamic"
)

// Package is a task handler package. Its tunnel receives the nested event
// as the request and answers with the handler response.
type Package struct {
	Package string
	Version string
	Tunnel  dynamic.Tunnel
}

type Dynamic struct {
	*Options
}

func NewDynamic(opts ...Option) *Dynamic {
	d := &Dynamic{
		Options: NewOptions(opts...),
	}

	d.InstallPackages()

	return d
}

// InstallPackages points the loader at the configured toolchain and
// warehouse, then registers builtins and loads the preload list. A preload
// failure is logged and retried on first use.
func (d *Dynamic) InstallPackages() {
	tc := d.Toolchain
	for dst, v := range map[*string]string{
		&dynamic.DynamicOS:       tc.OS,
		&dynamic.DynamicArch:     tc.Arch,
		&dynamic.DynamicCompiler: tc.Compiler,
		&dynamic.DynamicVariant:  tc.Variant,
	} {
		if v != "" {
			*dst = v
		}
	}

	if d.LocalWarehouse != "" || d.RemoteWarehouse != "" {
		dynamic.UseWarehouse(d.LocalWarehouse, d.RemoteWarehouse)
	}
	if d.HandlerNamespace != "" {
		dynamic.UseNamespace(d.HandlerNamespace)
	}
	if d.HandlerDefaultVersion != "" {
		dynamic.UseDefaultVersion(d.HandlerDefaultVersion)
	}

	for _, p := range d.Builtins {
		dynamic.RegisterPackage(p.Package, p.Version, p.Tunnel)
	}
	for _, p := range d.Preload {
		if _, err := dynamic.GetPackage(p.Package, p.Version); err != nil {
			log.Printf("[Dynamic] preload handler %s@%s failed: %v", p.Package, p.Version, err)
		}
	}
}

func (d *Dynamic) GetPackage(pkg string, version string) (dynamic.Tunnel, error) {
	return dynamic.GetPackage(pkg, version)
}

// Resolve splits a handler path of the form /<package>/<version>[/route...]
// and returns the package tunnel with the route left for it.
func (d *Dynamic) Resolve(path string) (dynamic.Tunnel, string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, "", fmt.Errorf("dynamic: invalid handler path %q", path)
	}

	tunnel, err := d.GetPackage(parts[0], parts[1])
	if err != nil {
		return nil, "", fmt.Errorf("dynamic: package %s/%s: %w", parts[0], parts[1], err)
	}
	return tunnel, "/" + strings.Join(parts[2:], "/"), nil
}
