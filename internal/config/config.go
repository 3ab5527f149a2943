package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"yqhp/aspect/pkg/logger"
)

// EnvPrefix is the prefix shared by every environment override.
const EnvPrefix = "ASPECT_"

// Config represents the complete configuration for the aspect server.
type Config struct {
	App     AppConfig      `yaml:"app"`
	Server  ServerConfig   `yaml:"server"`
	Log     logger.Config  `yaml:"log"`
	Script  ScriptConfig   `yaml:"script"`
	Aspects []AspectConfig `yaml:"aspects"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name    string `yaml:"name" env:"ASPECT_APP_NAME"`
	Version string `yaml:"version" env:"ASPECT_APP_VERSION"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address" env:"ASPECT_SERVER_ADDRESS"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"ASPECT_SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"ASPECT_SERVER_WRITE_TIMEOUT"`
	EnableCORS   bool          `yaml:"enable_cors" env:"ASPECT_SERVER_ENABLE_CORS"`
	EnableStats  bool          `yaml:"enable_stats" env:"ASPECT_SERVER_ENABLE_STATS"`
}

// ScriptConfig holds defaults for script hooks.
type ScriptConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"ASPECT_SCRIPT_TIMEOUT"`
}

// AspectConfig declares one script hook attached to a controller.
// An empty Actions list targets every action of the controller.
type AspectConfig struct {
	Name       string        `yaml:"name"`
	Controller string        `yaml:"controller"`
	Phase      string        `yaml:"phase"`
	Actions    []string      `yaml:"actions"`
	Script     string        `yaml:"script"`
	File       string        `yaml:"file"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Source returns the script body, reading File when Script is empty.
func (a AspectConfig) Source() (string, error) {
	if a.Script != "" || a.File == "" {
		return a.Script, nil
	}
	data, err := os.ReadFile(a.File)
	if err != nil {
		return "", fmt.Errorf("读取脚本文件 %s 失败: %w", a.File, err)
	}
	return string(data), nil
}

// DisplayName returns Name, or a name derived from controller and phase.
func (a AspectConfig) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	targets := "all"
	if len(a.Actions) > 0 {
		targets = strings.Join(a.Actions, ",")
	}
	return fmt.Sprintf("%s.%s[%s]", a.Controller, a.Phase, targets)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "aspect",
			Version: "dev",
		},
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   false,
			EnableStats:  true,
		},
		Log: logger.Config{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			FilePath:   "logs/aspect.log",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
		},
		Script: ScriptConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	required   bool
	envPrefix  string
	cmdArgs    map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: EnvPrefix,
		cmdArgs:   make(map[string]string),
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// RequireConfigFile makes a missing configuration file an error instead of
// falling back to the defaults.
func (l *Loader) RequireConfigFile() *Loader {
	l.required = true
	return l
}

// WithCmdArgs sets command-line arguments for configuration override.
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < environment variables < command-line flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("从文件加载配置失败: %w", err)
		}
	}

	if err := l.applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("应用环境变量覆盖失败: %w", err)
	}

	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return nil, fmt.Errorf("设置配置值 %s 失败: %w", key, err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) && !l.required {
			return nil
		}
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	return nil
}

// applyEnvToStruct recursively applies environment variables to tagged fields.
func (l *Loader) applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || !strings.HasPrefix(envTag, l.envPrefix) {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("从环境变量 %s 设置字段 %s 失败: %w", envTag, fieldType.Name, err)
		}
	}

	return nil
}

// setConfigValue sets a configuration value by its yaml dot path, e.g. server.enable_cors.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field, ok := fieldByYAMLName(v, part)
		if !ok {
			return fmt.Errorf("未知的配置路径: %s", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("期望 %s 是结构体，实际是 %s", part, field.Kind())
		}
		v = field
	}

	return nil
}

func fieldByYAMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if tag == name || strings.EqualFold(t.Field(i).Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("无法设置字段")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("无效的时间格式: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("无效的整数: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("不支持的切片类型: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("不支持的字段类型: %s", field.Kind())
	}

	return nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseConfig parses a YAML configuration from bytes on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file path.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// ParseSetFlags turns repeated key=value flags into loader overrides.
func ParseSetFlags(values []string) (map[string]string, error) {
	args := make(map[string]string, len(values))
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("无效的配置覆盖 %q，期望 key=value", kv)
		}
		args[key] = strings.TrimSpace(value)
	}
	return args, nil
}
