package configuration

import (
	"context"
	"time"

	"github.com/form3tech-oss/pact-core/pkg/models"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	AdminPort         int           `env:"ADMIN_PORT,default=8080"`          // Port the admin API listens on
	LogLevel          string        `env:"LOG_LEVEL,default=info"`           // logrus level name
	GeneratorSeed     int64         `env:"GENERATOR_SEED"`                   // Seed for random generators, 0 seeds from the clock
	PactSpecification string        `env:"PACT_SPECIFICATION,default=4.0.0"` // Version contract files are converted to by default
	MockServerURL     string        `env:"MOCK_SERVER_URL"`                  // Base URL used by MockServerURL generators
	WaitDelay         time.Duration `env:"WAIT_DELAY,default=500ms"`         // Delay between checks of the wait endpoint
	WaitDuration      time.Duration `env:"WAIT_DURATION,default=15s"`        // Default time the wait endpoint waits for
}

func NewFromEnv() (Config, error) {
	return newFromLookuper(envconfig.OsLookuper())
}

func newFromLookuper(lookuper envconfig.Lookuper) (Config, error) {
	ctx := context.Background()

	var config Config
	err := envconfig.ProcessWith(ctx, &config, lookuper)
	if err != nil {
		return config, errors.Wrap(err, "process env config")
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.AdminPort <= 0 || c.AdminPort > 65535 {
		return errors.Errorf("invalid admin port %d", c.AdminPort)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if c.SpecVersion() == models.SpecUnknown {
		return errors.Errorf("unsupported pact specification %q", c.PactSpecification)
	}
	return nil
}

// SpecVersion is the version contract files are written as when a request does not ask
// for one.
func (c Config) SpecVersion() models.SpecVersion {
	return models.ParseSpecVersion(c.PactSpecification)
}

// ConfigureLogging sets the logrus level from the configuration.
func (c Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
