package app

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/form3tech-oss/pact-core/internal/app/configuration"
	"github.com/form3tech-oss/pact-core/pkg/client"
	"github.com/pact-foundation/pact-go/utils"
)

var adminURL *url.URL

func TestMain(m *testing.M) {
	adminPort, err := utils.GetFreePort()
	if err != nil {
		panic(err)
	}

	_, err = configuration.ServeAdminAPI(configuration.Config{
		AdminPort:         adminPort,
		LogLevel:          "info",
		GeneratorSeed:     7,
		PactSpecification: "4.0.0",
		MockServerURL:     "http://mock.example",
		WaitDelay:         20 * time.Millisecond,
		WaitDuration:      time.Second,
	})
	if err != nil {
		panic(err)
	}

	adminURL, err = url.Parse(fmt.Sprintf("http://localhost:%d", adminPort))
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = client.New(adminURL.String()).WaitReady(ctx, 100*time.Millisecond)
	cancel()
	if err != nil {
		panic(err)
	}

	code := m.Run()
	configuration.ShutdownAllServers(context.Background())
	os.Exit(code)
}
