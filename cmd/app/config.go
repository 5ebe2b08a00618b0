package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/store"
)

// EnvPrefix is stripped from environment variables before envKeyTransform.
const EnvPrefix = "COLDLOAD_"

type Config struct {
	ProjectID   string            `koanf:"project_id" json:"project_id" yaml:"project_id"`
	LogLevel    string            `koanf:"log_level" json:"log_level" yaml:"log_level"`
	Store       StoreConfig       `koanf:"store" json:"store" yaml:"store"`
	Controllers ControllersConfig `koanf:"controllers" json:"controllers" yaml:"controllers"`

	Reference ReferenceConfig `koanf:"reference" json:"reference" yaml:"reference"`
}

type StoreConfig struct {
	Backend       string        `koanf:"backend" json:"backend" yaml:"backend"` // "memory" | "file" | "redis"
	Dir           string        `koanf:"dir" json:"dir" yaml:"dir"`
	Format        string        `koanf:"format" json:"format" yaml:"format"` // "json" | "yaml"
	RedisAddr     string        `koanf:"redis_addr" json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `koanf:"redis_password" json:"redis_password" yaml:"redis_password"`
	RedisDB       int           `koanf:"redis_db" json:"redis_db" yaml:"redis_db"`
	KeyPrefix     string        `koanf:"key_prefix" json:"key_prefix" yaml:"key_prefix"`
	SyncInterval  time.Duration `koanf:"sync_interval" json:"sync_interval" yaml:"sync_interval"`
}

type ControllersConfig struct {
	HTTP   HTTPConfig   `koanf:"http" json:"http" yaml:"http"`
	MQTT   MQTTConfig   `koanf:"mqtt" json:"mqtt" yaml:"mqtt"`
	MODBUS ModbusConfig `koanf:"modbus" json:"modbus" yaml:"modbus"`
}

type HTTPConfig struct {
	Enabled      bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Addr         string        `koanf:"addr" json:"addr" yaml:"addr"`
	PushInterval time.Duration `koanf:"push_interval" json:"push_interval" yaml:"push_interval"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
	BrokerURL       string        `koanf:"broker_url" json:"broker_url" yaml:"broker_url"`
	ClientID        string        `koanf:"client_id" json:"client_id" yaml:"client_id"`
	BaseTopic       string        `koanf:"base_topic" json:"base_topic" yaml:"base_topic"`
	QoS             byte          `koanf:"qos" json:"qos" yaml:"qos"`
	RetainResult    bool          `koanf:"retain_result" json:"retain_result" yaml:"retain_result"`
	PublishInterval time.Duration `koanf:"publish_interval" json:"publish_interval" yaml:"publish_interval"`
	Username        string        `koanf:"username" json:"username" yaml:"username"`
	Password        string        `koanf:"password" json:"password" yaml:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" json:"addr" yaml:"addr"`
	UnitID  byte   `koanf:"unit_id" json:"unit_id" yaml:"unit_id"`
}

// ReferenceConfig overrides individual reference values. Unset fields keep
// coldroom.DefaultReference.
type ReferenceConfig struct {
	PersonHeatGainKW         *float64 `koanf:"person_heat_gain_kw,omitempty" json:"person_heat_gain_kw" yaml:"person_heat_gain_kw"`
	PeripheralHeaterKW       *float64 `koanf:"peripheral_heater_kw,omitempty" json:"peripheral_heater_kw" yaml:"peripheral_heater_kw"`
	DoorHeaterKW             *float64 `koanf:"door_heater_kw,omitempty" json:"door_heater_kw" yaml:"door_heater_kw"`
	DoorOpenSeconds          *float64 `koanf:"door_open_seconds,omitempty" json:"door_open_seconds" yaml:"door_open_seconds"`
	DoorFlowFactor           *float64 `koanf:"door_flow_factor,omitempty" json:"door_flow_factor" yaml:"door_flow_factor"`
	DoorProtection           *float64 `koanf:"door_protection,omitempty" json:"door_protection" yaml:"door_protection"`
	CirculationAirChanges    *float64 `koanf:"circulation_air_changes,omitempty" json:"circulation_air_changes" yaml:"circulation_air_changes"`
	RecommendedAirflowMargin *float64 `koanf:"recommended_airflow_margin,omitempty" json:"recommended_airflow_margin" yaml:"recommended_airflow_margin"`
}

func defaultConfig() Config {
	return Config{
		ProjectID: "default",
		LogLevel:  "info",
		Store: StoreConfig{
			Backend:      "memory",
			Dir:          "data",
			Format:       "json",
			RedisAddr:    "localhost:6379",
			KeyPrefix:    "coldload:",
			SyncInterval: 5 * time.Second,
		},
		Controllers: ControllersConfig{
			HTTP: HTTPConfig{
				Addr:         ":8080",
				PushInterval: 1 * time.Second,
			},
			MQTT: MQTTConfig{
				BrokerURL:       "tcp://localhost:1883",
				PublishInterval: 1 * time.Second,
			},
			MODBUS: ModbusConfig{
				Addr:   "127.0.0.1:1502",
				UnitID: 1,
			},
		},
	}
}

// LoadConfig layers defaults, the config file (when present), a .env file
// and COLDLOAD_* environment variables, in that order.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			// Config file missing → use defaults
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = "default"
	}
	if cfg.Controllers.HTTP.Addr == "" {
		cfg.Controllers.HTTP.Addr = ":8080"
	}
	if !cfg.Controllers.HTTP.Enabled && !cfg.Controllers.MQTT.Enabled && !cfg.Controllers.MODBUS.Enabled {
		cfg.Controllers.HTTP.Enabled = true
	}
	if cfg.Controllers.MQTT.PublishInterval <= 0 {
		cfg.Controllers.MQTT.PublishInterval = 1 * time.Second
	}
	if cfg.Controllers.MODBUS.UnitID == 0 {
		cfg.Controllers.MODBUS.UnitID = 1
	}
	if cfg.Store.SyncInterval < 0 {
		cfg.Store.SyncInterval = 0
	}
}

// ReferenceData applies the configured overrides onto the default reference
// data and validates the result.
func (c Config) ReferenceData() (coldroom.Reference, error) {
	ref := coldroom.DefaultReference()
	r := c.Reference

	overrides := []struct {
		src *float64
		dst *float64
	}{
		{r.PersonHeatGainKW, &ref.PersonHeatGainKW},
		{r.PeripheralHeaterKW, &ref.PeripheralHeaterKW},
		{r.DoorHeaterKW, &ref.DoorHeaterKW},
		{r.DoorOpenSeconds, &ref.DoorOpenSeconds},
		{r.DoorFlowFactor, &ref.DoorFlowFactor},
		{r.DoorProtection, &ref.DoorProtection},
		{r.CirculationAirChanges, &ref.CirculationAirChanges},
		{r.RecommendedAirflowMargin, &ref.RecommendedAirflowMult},
	}
	for _, o := range overrides {
		if o.src != nil {
			*o.dst = *o.src
		}
	}

	if err := ref.Validate(); err != nil {
		return coldroom.Reference{}, err
	}
	return ref, nil
}

func (c Config) StoreConfig() store.Config {
	return store.Config{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		Format:  c.Store.Format,
		Redis: store.RedisConfig{
			Addr:      c.Store.RedisAddr,
			Password:  c.Store.RedisPassword,
			DB:        c.Store.RedisDB,
			KeyPrefix: c.Store.KeyPrefix,
		},
	}
}

// sections whose keys nest one level (<section>.<rest>) or, for
// controllers, two levels (controllers.<controller>.<rest>).
var envSections = map[string]int{
	"controllers": 3,
	"store":       2,
	"reference":   2,
}

// envKeyTransform maps an environment key (prefix already stripped) to a
// koanf path: CONTROLLERS_HTTP_ADDR → controllers.http.addr,
// STORE_REDIS_ADDR → store.redis_addr, PROJECT_ID → project_id.
func envKeyTransform(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return ""
	}
	parts := strings.Split(k, "_")
	n, ok := envSections[parts[0]]
	if !ok || len(parts) < n {
		return k
	}
	head := strings.Join(parts[:n-1], ".")
	return head + "." + strings.Join(parts[n-1:], "_")
}
