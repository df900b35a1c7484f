package git

import (
	"context"
	"strings"

	"github.com/jmgilman/gitcli/internal/buffer"
	platformerrors "github.com/jmgilman/go/errors"
)

// Config lists every configuration entry git sees, in the order git reads
// them, with the level and file each came from. Later entries override
// earlier ones for single-valued keys.
//
// Entries from included files take the level of the file that included
// them.
func (r *Repository) Config(ctx context.Context) ([]ConfigEntry, error) {
	levels, err := r.configLevels(ctx)
	if err != nil {
		return nil, err
	}

	c := gitCommand(configRules, "config", "--list", "--show-origin", "-z")
	c.family = familyConfig

	var entries []ConfigEntry
	err = r.run.stream(ctx, c, configFormat, func(rd *buffer.Reader) error {
		return parseConfig(rd, levels, func(e ConfigEntry) error {
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ConfigGet returns the effective value of key. The second result is false
// when the key is not set.
//
// Example:
//
//	email, ok, err := repo.ConfigGet(ctx, "user.email")
func (r *Repository) ConfigGet(ctx context.Context, key string) (string, bool, error) {
	if err := validateConfigKey(key); err != nil {
		return "", false, err
	}
	c := gitCommand(configRules, "config", "--get", key)
	c.family = familyConfig
	c.allow = []int{1}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return "", false, err
	}
	if res.ExitCode == 1 {
		return "", false, nil
	}
	return strings.TrimSuffix(res.Stdout, "\n"), true, nil
}

// ConfigSet writes key to the repository's local config.
func (r *Repository) ConfigSet(ctx context.Context, key, value string) error {
	if err := validateConfigKey(key); err != nil {
		return err
	}
	c := gitCommand(configRules, "config", "--local", key, value)
	c.family = familyConfig
	_, err := r.run.run(ctx, c)
	return err
}

// ConfigUnset removes key from the repository's local config. Fails with
// ErrConfigNotFound when the key is not set there.
func (r *Repository) ConfigUnset(ctx context.Context, key string) error {
	if err := validateConfigKey(key); err != nil {
		return err
	}
	c := gitCommand(configRules, "config", "--local", "--unset-all", key)
	c.family = familyConfig
	c.allow = []int{5}
	res, err := r.run.run(ctx, c)
	if err != nil {
		return err
	}
	if res.ExitCode == 5 {
		return platformerrors.WrapWithContext(ErrConfigNotFound, platformerrors.CodeNotFound, "config key not set", map[string]interface{}{
			"key": key,
		})
	}
	return nil
}
