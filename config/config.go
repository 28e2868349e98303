// Package config loads the settings for a contract test run.
//
// Values are applied in this order, each source overriding the previous one: built-in
// defaults, an optional YAML file, an optional .env file, environment variables with the
// CATALOG prefix, and finally command-line flags (applied by the caller before Validate).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/catalogqa/catalog-contract-tests/servicedef"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "CATALOG"

// Config is the full configuration of a test run.
type Config struct {
	BaseURL        string        `yaml:"base_url" envconfig:"URL"`
	Email          string        `yaml:"email" envconfig:"EMAIL"`
	Password       string        `yaml:"password" envconfig:"PASSWORD"`
	LoginPath      string        `yaml:"login_path" envconfig:"LOGIN_PATH"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	LogLevel       zapcore.Level `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Fixtures       Fixtures      `yaml:"fixtures" ignored:"true"`
}

// Fixtures is the data the book scenarios expect to find in, or send to, the service.
// The seeded books must exist before the run; the harness does not create them.
type Fixtures struct {
	ExistingBook ExpectedBook    `yaml:"existing_book"`
	BookToUpdate string          `yaml:"book_to_update"`
	BookToDelete string          `yaml:"book_to_delete"`
	Update       BookUpdate      `yaml:"update"`
	NewBook      NewBookTemplate `yaml:"new_book"`
}

type ExpectedBook struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// BookUpdate is the partial update applied to BookToUpdate.
type BookUpdate struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// NewBookTemplate holds the fields of books created by the add book scenario, other
// than the generated title and the category.
type NewBookTemplate struct {
	Author      string  `yaml:"author"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Pages       int     `yaml:"pages"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Email:     "john.doe@example.com",
		Password:  "password123",
		LoginPath: "/user/login",
		LogLevel:  zapcore.InfoLevel,
		Fixtures: Fixtures{
			ExistingBook: ExpectedBook{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald"},
			BookToUpdate: "The Catcher in the Rye",
			BookToDelete: "To Kill a Mockingbird",
			Update:       BookUpdate{Title: "Updated Book Title", Author: "Updated Author"},
			NewBook: NewBookTemplate{
				Author:      "Random Author",
				Description: "Random Description",
				Price:       20,
				Pages:       350,
			},
		},
	}
}

// Credentials returns the login credentials.
func (c Config) Credentials() servicedef.Credentials {
	return servicedef.Credentials{Email: c.Email, Password: c.Password}
}

// Load builds a configuration from the defaults, the YAML file at configFile if it is
// not empty, the .env file at envFile if it exists, and the environment.
func Load(configFile, envFile string) (Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFile(configFile, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load configuration from file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load environment file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load configuration from environment: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is complete enough to run the tests.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("service URL is required (-url or CATALOG_URL)")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service URL %q must be an absolute http or https URL", c.BaseURL)
	}
	if c.Email == "" || c.Password == "" {
		return errors.New("login email and password are required")
	}
	if c.LoginPath == "" || c.LoginPath[0] != '/' {
		return fmt.Errorf("login path %q must start with /", c.LoginPath)
	}
	if c.RequestTimeout < 0 {
		return errors.New("request timeout cannot be negative")
	}
	f := c.Fixtures
	if f.ExistingBook.Title == "" || f.BookToUpdate == "" || f.BookToDelete == "" {
		return errors.New("fixture book titles must not be empty")
	}
	if f.BookToUpdate == f.BookToDelete {
		return errors.New("the books to update and to delete must be different")
	}
	if f.Update.Title == "" || f.Update.Author == "" {
		return errors.New("fixture update must set both title and author")
	}
	return nil
}
