package exec

import "sort"

// config holds the configuration for command execution.
// It distinguishes between global settings (set at creation time) and local settings (set per-execution).
type config struct {
	// Global settings (set at creation time)
	globalEnv           map[string]string
	globalDir           string
	globalInheritEnv    bool
	globalDisableColors bool

	// Local settings (set per-execution, override global)
	localEnv           map[string]string
	localDir           string
	localInheritEnv    *bool
	localDisableColors *bool
}

// newConfig creates a new configuration with default values.
func newConfig() *config {
	return &config{
		globalEnv: make(map[string]string),
		localEnv:  make(map[string]string),
	}
}

// clone creates a deep copy of the configuration.
func (c *config) clone() *config {
	clone := &config{
		globalEnv:           make(map[string]string, len(c.globalEnv)),
		globalDir:           c.globalDir,
		globalInheritEnv:    c.globalInheritEnv,
		globalDisableColors: c.globalDisableColors,
		localEnv:            make(map[string]string, len(c.localEnv)),
		localDir:            c.localDir,
	}

	for k, v := range c.globalEnv {
		clone.globalEnv[k] = v
	}
	for k, v := range c.localEnv {
		clone.localEnv[k] = v
	}

	if c.localInheritEnv != nil {
		val := *c.localInheritEnv
		clone.localInheritEnv = &val
	}
	if c.localDisableColors != nil {
		val := *c.localDisableColors
		clone.localDisableColors = &val
	}

	return clone
}

// effectiveEnv returns the effective environment variables, merging global and local settings.
// Local settings override global settings.
func (c *config) effectiveEnv() map[string]string {
	env := make(map[string]string, len(c.globalEnv)+len(c.localEnv))
	for k, v := range c.globalEnv {
		env[k] = v
	}
	for k, v := range c.localEnv {
		env[k] = v
	}

	if c.effectiveDisableColors() {
		env["NO_COLOR"] = "1"
		env["TERM"] = "dumb"
		env["CLICOLOR"] = "0"
		env["CLICOLOR_FORCE"] = "0"
		env["FORCE_COLOR"] = "0"
	}

	return env
}

// environ renders the effective environment as sorted KEY=VALUE pairs.
func (c *config) environ() []string {
	env := c.effectiveEnv()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// effectiveDir returns the effective working directory.
func (c *config) effectiveDir() string {
	if c.localDir != "" {
		return c.localDir
	}
	return c.globalDir
}

// effectiveInheritEnv returns whether to inherit environment variables.
func (c *config) effectiveInheritEnv() bool {
	if c.localInheritEnv != nil {
		return *c.localInheritEnv
	}
	return c.globalInheritEnv
}

// effectiveDisableColors returns whether to disable colors.
func (c *config) effectiveDisableColors() bool {
	if c.localDisableColors != nil {
		return *c.localDisableColors
	}
	return c.globalDisableColors
}

// resetLocal resets all local settings.
// This is called after each Run or Start so local settings don't carry over.
func (c *config) resetLocal() {
	c.localEnv = make(map[string]string)
	c.localDir = ""
	c.localInheritEnv = nil
	c.localDisableColors = nil
}
