package dynamic

import (
	"encoding/json"
	"os"
	"runtime/debug"
	"strings"
)

// ServiceInfo is parsed from AWS_LAMBDA_FUNCTION_NAME, formatted as
// business-framework-runtime-resource-instance.
type ServiceInfo struct {
	Business  string `json:"business"`
	Framework string `json:"framework"`
	Runtime   string `json:"runtime"`
	Resource  string `json:"resource"`
	Instance  string `json:"instance"`
}

type BuildInfo struct {
	Module  string `json:"module"`
	Version string `json:"version"`
	Built   string `json:"built"`
}

type WarehouseInfo struct {
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

type Meta struct {
	Service   ServiceInfo   `json:"service"`
	Build     BuildInfo     `json:"build"`
	Warehouse WarehouseInfo `json:"warehouse"`
}

// Meta describes the running adapter. Top level keys of extra, a JSON
// object, are added when they do not collide with the built-in ones.
func (d *Dynamic) Meta(extra []byte) []byte {
	meta := Meta{
		Service: parseServiceInfo(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")),
		Build:   parseBuildInfo(),
		Warehouse: WarehouseInfo{
			Local:  d.LocalWarehouse,
			Remote: d.RemoteWarehouse,
		},
	}

	result, err := json.Marshal(meta)
	if err != nil {
		return []byte("{}")
	}
	if len(extra) == 0 {
		return result
	}

	var base, more map[string]json.RawMessage
	if err := json.Unmarshal(result, &base); err != nil {
		return result
	}
	if err := json.Unmarshal(extra, &more); err != nil {
		return result
	}
	for k, v := range more {
		if _, ok := base[k]; !ok {
			base[k] = v
		}
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return result
	}
	return merged
}

func parseServiceInfo(funcName string) ServiceInfo {
	parts := strings.SplitN(funcName, "-", 5)
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	return ServiceInfo{
		Business:  parts[0],
		Framework: parts[1],
		Runtime:   parts[2],
		Resource:  parts[3],
		Instance:  parts[4],
	}
}

func parseBuildInfo() BuildInfo {
	info := BuildInfo{}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.Module = buildInfo.Main.Path
	info.Version = buildInfo.Main.Version
	for _, setting := range buildInfo.Settings {
		if setting.Key == "vcs.time" {
			info.Built = setting.Value
			break
		}
	}

	return info
}
