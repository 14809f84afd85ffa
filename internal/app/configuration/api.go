package configuration

import (
	"fmt"

	"github.com/form3tech-oss/pact-core/internal/app/api"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/labstack/echo/v4"
)

// ServeAdminAPI starts the admin API on the configured port and returns the echo
// instance serving it.
func ServeAdminAPI(config Config) (*echo.Echo, error) {
	adminServer := echo.New()
	adminServer.HideBanner = true
	adminServer.HidePort = true

	apiConfig := api.Config{
		SpecVersion:   config.SpecVersion(),
		MockServerURL: config.MockServerURL,
		WaitDelay:     config.WaitDelay,
		WaitDuration:  config.WaitDuration,
	}
	if config.GeneratorSeed != 0 {
		apiConfig.Random = generators.NewSource(config.GeneratorSeed)
	}
	api.SetupRoutes(adminServer, apiConfig)

	address := fmt.Sprintf(":%d", config.AdminPort)
	if _, err := StartServer(address, adminServer); err != nil {
		return nil, err
	}
	return adminServer, nil
}
