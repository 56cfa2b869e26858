// Package config loads the controller's boot-time configuration from a
// mounted YAML file, supplementing the flag set the teacher's main.go
// relies on exclusively (spec.md §9: configuration is read once at boot
// from a mounted file, not environment variables).
package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/agentrun/agentrun/internal/controller"
)

// DefaultConfigPath is where the controller looks for its config file
// unless overridden by the --config-file flag.
const DefaultConfigPath = "/etc/agentrun/config.yaml"

// ControllerConfig is the typed shape of the mounted config file. The
// image set here is overridden by a non-empty --agent-image flag; no CLI
// flag overrides the TTL, which comes from this file alone.
type ControllerConfig struct {
	// AgentImage is the default agent container image.
	AgentImage string `json:"agentImage,omitempty"`

	// TTLSecondsAfterFinished overrides the default Job TTL.
	TTLSecondsAfterFinished *int32 `json:"ttlSecondsAfterFinished,omitempty"`

	// MaxConcurrentReconciles bounds per-reconciler worker concurrency
	// (spec.md §9: "one per handful of controller cores").
	MaxConcurrentReconciles int `json:"maxConcurrentReconciles,omitempty"`

	// TemplateConfigMapName names the operator-supplied template
	// override ConfigMap each reconciler looks up per namespace.
	TemplateConfigMapName string `json:"templateConfigMapName,omitempty"`
}

// Load reads and decodes the YAML config file at path. A missing file is
// not an error: the zero-value ControllerConfig (pure defaults) is
// returned so the controller still boots on a bare cluster.
func Load(path string) (ControllerConfig, error) {
	var cfg ControllerConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// JobBuilder constructs a controller.JobBuilder from the config, applying
// defaults for any unset field.
func (c ControllerConfig) JobBuilder() *controller.JobBuilder {
	b := controller.NewJobBuilder()
	if c.AgentImage != "" {
		b.Image = c.AgentImage
	}
	if c.TTLSecondsAfterFinished != nil {
		b.TTLSecondsAfterFinished = *c.TTLSecondsAfterFinished
	}
	return b
}
