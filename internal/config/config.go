package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralParams    GeneralParams
	HttpServerParams HttpServerParams
	DBParams         DBParams
	RedisParams      RedisParams
	S3Params         S3Params
	VoiceParams      VoiceParams
}

type GeneralParams struct {
	Env       string
	SecretKey string
}

type HttpServerParams struct {
	Address string
	Port    string
}

type DBParams struct {
	Username string
	Password string
	Name     string
	Port     int
	Host     string
	Timeout  int
}

type RedisParams struct {
	Addr     string
	Password string
	DB       int
}

type S3Params struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
}

// VoiceParams points at the external voice-room provider.
// Leaving BaseURL or APIKey empty disables voice provisioning;
// rooms are then created without a voice URL.
type VoiceParams struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

type ConfigManager struct {
	v      *viper.Viper
	config *Config
}

// NewConfigManager creates new config manager that handles
// all viper config options and loads a config from yaml
func NewConfigManager(configPath string) (*ConfigManager, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cm := &ConfigManager{v: v}

	if err := cm.loadConfig(); err != nil {
		return nil, err
	}

	return cm, nil
}

// Extracting data from yaml file and loading into Config
func (cm *ConfigManager) loadConfig() error {
	cm.config = &Config{
		GeneralParams: GeneralParams{
			Env:       cm.v.GetString("general_params.env"),
			SecretKey: cm.v.GetString("general_params.secret_key"),
		},
		HttpServerParams: HttpServerParams{
			Address: cm.v.GetString("http_server_params.http_server_address"),
			Port:    cm.v.GetString("http_server_params.http_server_port"),
		},
		DBParams: DBParams{
			Username: cm.v.GetString("db_params.db_username"),
			Password: cm.v.GetString("db_params.db_password"),
			Name:     cm.v.GetString("db_params.db_name"),
			Port:     cm.v.GetInt("db_params.db_port"),
			Host:     cm.v.GetString("db_params.db_host"),
			Timeout:  cm.v.GetInt("db_params.db_timeout"),
		},
		RedisParams: RedisParams{
			Addr:     cm.v.GetString("redis_params.addr"),
			Password: cm.v.GetString("redis_params.password"),
			DB:       cm.v.GetInt("redis_params.db"),
		},
		S3Params: S3Params{
			Endpoint:        cm.v.GetString("s3_params.endpoint"),
			AccessKeyID:     cm.v.GetString("s3_params.access_key_id"),
			SecretAccessKey: cm.v.GetString("s3_params.secret_access_key"),
			UseSSL:          cm.v.GetBool("s3_params.use_ssl"),
			BucketName:      cm.v.GetString("s3_params.bucket_name"),
		},
		VoiceParams: VoiceParams{
			BaseURL:        cm.v.GetString("voice_params.base_url"),
			APIKey:         cm.v.GetString("voice_params.api_key"),
			TimeoutSeconds: cm.v.GetInt("voice_params.timeout_seconds"),
		},
	}
	return nil
}

// Geting config instance
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// Compiling a string to connect to the main database
func (db *DBParams) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=%d&sslmode=disable",
		db.Username,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Timeout,
	)
}

func (h *HttpServerParams) GetAddress() string {
	return fmt.Sprintf(
		"%s:%s",
		h.Address,
		h.Port,
	)
}

func (c *Config) Validate() error {
	// Checking secret key
	if c.GeneralParams.SecretKey == "" {
		return fmt.Errorf("parameter secret_key is required")
	}

	// Checking out enviroment variable
	switch c.GeneralParams.Env {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("env parameter is invalid: %s. try dev/prod/test instead", c.GeneralParams.Env)
	}

	// Checking http server parameters
	if c.HttpServerParams.Address == "" {
		return fmt.Errorf("http server address is required")
	}
	if c.HttpServerParams.Port == "" {
		return fmt.Errorf("http server port is required")
	}

	// Checking database params
	if c.DBParams.Host == "" {
		return fmt.Errorf("db: host is required")
	}
	if c.DBParams.Username == "" {
		return fmt.Errorf("db: username is required")
	}
	if c.DBParams.Password == "" {
		return fmt.Errorf("db: password is requred")
	}
	if c.DBParams.Port == 0 {
		return fmt.Errorf("db: port is invalid")
	}

	// Checking redis params
	if c.RedisParams.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}

	// Checking S3 params
	if c.S3Params.Endpoint == "" {
		return fmt.Errorf("S3 endpoint is required")
	}
	if c.S3Params.AccessKeyID == "" {
		return fmt.Errorf("S3 access_key id is required")
	}
	if c.S3Params.SecretAccessKey == "" {
		return fmt.Errorf("S3 secret_access_key is required")
	}
	if c.S3Params.BucketName == "" {
		return fmt.Errorf("S3 bucket name is required")
	}

	// Voice params are optional as a pair: both or neither
	if (c.VoiceParams.BaseURL == "") != (c.VoiceParams.APIKey == "") {
		return fmt.Errorf("voice base_url and api_key must be set together")
	}

	return nil
}
