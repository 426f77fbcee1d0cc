package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Backend profiles understood by the endpoint resolver.
const (
	ProfileExpress = "express"
	ProfileFastAPI = "fastapi"
)

type (
	APIConfig struct {
		Profile       string        `json:"profile" validate:"required,oneof=express fastapi"`
		BaseURL       string        `json:"base_url" validate:"required,url"`
		PublicBaseURL string        `json:"public_base_url" validate:"required,url"`
		DirectBaseURL string        `json:"direct_base_url" validate:"omitempty,url"`
		Timeout       time.Duration `json:"timeout" validate:"min=1ms"`
		PageSize      int           `json:"page_size" validate:"min=1,max=500"`
		RateLimit     float64       `json:"rate_limit" validate:"min=0"`
		RateBurst     int           `json:"rate_burst" validate:"min=0"`
	}

	DevServerConfig struct {
		Address            string        `json:"address"`
		SecretKey          string        `json:"secret_key"`
		JWTExpirationDelta time.Duration `json:"jwt_expiration_delta"`
		AdminUsername      string        `json:"admin_username"`
		AdminPassword      string        `json:"admin_password"`
	}

	// Config is the static configuration of the client. It is loaded once at start-up
	// and handed to every component explicitly.
	Config struct {
		Env             string          `json:"env"`
		Debug           bool            `json:"debug"`
		TestMode        bool            `json:"test_mode"`
		AppName         string          `json:"app_name"`
		Build           string          `json:"build"`
		RollbarToken    string          `json:"rollbar_token"`
		SessionPath     string          `json:"session_path"`
		DashboardFanout int             `json:"dashboard_fanout" validate:"min=1"`
		API             APIConfig       `json:"api"`
		DevServer       DevServerConfig `json:"dev_server"`
	}
)

// NewConfig loads the configuration for the environment named by $ENV (DEV by default).
// Values come from, in order of precedence: prefixed environment variables
// (eg. DEV_APIBASEURL), `<dir>/.env.<env>` and the defaults below.
func NewConfig(dir string) (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "SMS Admin")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sessionPath", "")
	v.SetDefault("dashboardFanout", 5)
	v.SetDefault("apiProfile", ProfileExpress)
	v.SetDefault("apiBaseURL", "http://localhost:3000/api")
	v.SetDefault("apiPublicBaseURL", "")
	v.SetDefault("apiDirectBaseURL", "http://localhost:5000/api")
	v.SetDefault("apiTimeout", 4*time.Second)
	v.SetDefault("apiPageSize", 10)
	v.SetDefault("apiRateLimit", 0.0)
	v.SetDefault("apiRateBurst", 0)
	v.SetDefault("devAddress", ":5000")
	v.SetDefault("devSecretKey", "9c1b-sms)dev$+secret=key&change(me)")
	v.SetDefault("devJWTExpirationDelta", 24*time.Hour)
	v.SetDefault("devAdminUsername", "admin")
	v.SetDefault("devAdminPassword", "admin123")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	testMode := env == "TEST"
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if dir != "" {
		dotEnvPath := filepath.Join(dir, ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
		}
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        testMode,
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		RollbarToken:    v.GetString("rollbarToken"),
		SessionPath:     v.GetString("sessionPath"),
		DashboardFanout: v.GetInt("dashboardFanout"),
		API: APIConfig{
			Profile:       strings.ToLower(CleanString(v.GetString("apiProfile"))),
			BaseURL:       strings.TrimRight(v.GetString("apiBaseURL"), "/"),
			PublicBaseURL: strings.TrimRight(v.GetString("apiPublicBaseURL"), "/"),
			DirectBaseURL: strings.TrimRight(v.GetString("apiDirectBaseURL"), "/"),
			Timeout:       v.GetDuration("apiTimeout"),
			PageSize:      v.GetInt("apiPageSize"),
			RateLimit:     v.GetFloat64("apiRateLimit"),
			RateBurst:     v.GetInt("apiRateBurst"),
		},
		DevServer: DevServerConfig{
			Address:            v.GetString("devAddress"),
			SecretKey:          v.GetString("devSecretKey"),
			JWTExpirationDelta: v.GetDuration("devJWTExpirationDelta"),
			AdminUsername:      v.GetString("devAdminUsername"),
			AdminPassword:      v.GetString("devAdminPassword"),
		},
	}
	if conf.API.PublicBaseURL == "" {
		conf.API.PublicBaseURL = conf.API.BaseURL + "/public"
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks the struct tags of the configuration.
func (conf *Config) Validate() error {
	if err := Validate.Struct(conf); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}
