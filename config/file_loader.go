package config

import (
	stderrors "errors"
	"path"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/kochabx/yogaclub/core/validator"
	"github.com/kochabx/yogaclub/errors"
)

// FileLoader loads configuration from a file with environment overrides.
// A missing file is not an error: defaults and environment still apply.
type FileLoader struct {
	viper    *viper.Viper
	validate validator.Validator
	found    bool
}

// NewFileLoader creates a file loader reading name from the given paths.
// Environment variables override file values: with prefix YOGACLUB the key
// session.default_ttl is read from YOGACLUB_SESSION_DEFAULT_TTL.
func NewFileLoader(name string, paths []string, envPrefix string, v *viper.Viper, validate validator.Validator) *FileLoader {
	ext := path.Ext(name)
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName(strings.TrimSuffix(name, ext))
	v.SetConfigType(strings.TrimPrefix(ext, "."))

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{viper: v, validate: validate}
}

// Load implements Loader
func (l *FileLoader) Load(target any) error {
	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return errors.Wrap(err, 500, "config-read")
		}
		l.found = false
	} else {
		l.found = true
	}

	if err := l.viper.Unmarshal(target); err != nil {
		return errors.Wrap(err, 500, "config-parse")
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return errors.Wrap(err, 400, "config-invalid")
		}
	}
	return nil
}

// Watch implements Loader. It is a no-op when no config file was found.
func (l *FileLoader) Watch(callback func()) error {
	if !l.found {
		return nil
	}
	l.viper.OnConfigChange(func(fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})
	l.viper.WatchConfig()
	return nil
}

// Used returns the path of the config file that was read, empty if none.
func (l *FileLoader) Used() string {
	if !l.found {
		return ""
	}
	return l.viper.ConfigFileUsed()
}
