package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is read when LoadConfig is given no env files
const DefaultEnvFile = ".env"

// Config structure represents the application configuration
type Config struct {
	Registry struct {
		EmailDomain      string `yaml:"email_domain" env:"REGISTRY_EMAIL_DOMAIN" validate:"required,fqdn"`
		StudentIDBase    int64  `yaml:"student_id_base" env:"REGISTRY_STUDENT_ID_BASE" validate:"gte=0"`
		InstructorIDBase int64  `yaml:"instructor_id_base" env:"REGISTRY_INSTRUCTOR_ID_BASE" validate:"gtfield=StudentIDBase"`
		AdminIDBase      int64  `yaml:"admin_id_base" env:"REGISTRY_ADMIN_ID_BASE" validate:"gtfield=InstructorIDBase"`
		BcryptCost       int    `yaml:"bcrypt_cost" env:"REGISTRY_BCRYPT_COST" validate:"gte=4,lte=31"`
	} `yaml:"registry"`

	Catalog struct {
		CRNBase            int64 `yaml:"crn_base" env:"CATALOG_CRN_BASE" validate:"gte=0"`
		CRNWidth           int   `yaml:"crn_width" env:"CATALOG_CRN_WIDTH" validate:"gte=1,lte=18"`
		SectionNumberWidth int   `yaml:"section_number_width" env:"CATALOG_SECTION_NUMBER_WIDTH" validate:"gte=1,lte=9"`
	} `yaml:"catalog"`

	Auth struct {
		AllowOverrides bool       `yaml:"allow_overrides" env:"AUTH_ALLOW_OVERRIDES"`
		Overrides      []Override `yaml:"overrides" validate:"dive"`
	} `yaml:"auth"`

	Seed struct {
		AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME" validate:"required"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		CatalogFile   string `yaml:"catalog_file" env:"SEED_CATALOG_FILE"`
	} `yaml:"seed"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error disabled"`
		Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=json text"`
	} `yaml:"logging"`

	Metrics struct {
		Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" validate:"required"`
	} `yaml:"metrics"`
}

// Override is a fixed sign-in used only for testing deployments
type Override struct {
	Role     string `yaml:"role" validate:"required,oneof=STUDENT INSTRUCTOR ADMIN"`
	Email    string `yaml:"email" validate:"required"`
	Password string `yaml:"password" validate:"required"`
}

var validate = validator.New()

// LoadConfig loads configuration from a file, .env files and environment
// variables, in increasing order of precedence
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Parse YAML into Config structure
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env values never replace variables already set in the environment
	if err := loadDotEnv(envFiles); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Registry defaults
	config.Registry.EmailDomain = "university.edu"
	config.Registry.StudentIDBase = 800999999
	config.Registry.InstructorIDBase = 801999999
	config.Registry.AdminIDBase = 802999999
	config.Registry.BcryptCost = 12

	// Catalog defaults
	config.Catalog.CRNBase = 10000
	config.Catalog.CRNWidth = 5
	config.Catalog.SectionNumberWidth = 3

	// Seed defaults
	config.Seed.AdminName = "Master Admin"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Metrics defaults
	config.Metrics.Namespace = "registrar"
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	var present []string
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			present = append(present, file)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	// Recursively process the config structure and look for env tags
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	config.Logging.Level = strings.ToLower(config.Logging.Level)
	config.Logging.Format = strings.ToLower(config.Logging.Format)

	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
		return errors.New(strings.Join(problems, "; "))
	}

	if config.Auth.AllowOverrides && len(config.Auth.Overrides) == 0 {
		return errors.New("auth overrides are enabled but none are configured")
	}
	return nil
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
