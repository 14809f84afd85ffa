package api

import (
	"io"
	"net/http"
	"time"

	"github.com/form3tech-oss/pact-core/internal/app/httpresponse"
	"github.com/form3tech-oss/pact-core/pkg/client"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/form3tech-oss/pact-core/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultDelay    = 500 * time.Millisecond
	defaultDuration = 15 * time.Second
)

type Config struct {
	SpecVersion   models.SpecVersion // Version contracts are converted to when none is requested
	MockServerURL string             // Default base URL for MockServerURL generators
	Random        *generators.Source // Source for random generators, nil uses the default
	WaitDelay     time.Duration      // Delay between checks of the wait endpoint
	WaitDuration  time.Duration      // Default time the wait endpoint waits for
}

type api struct {
	config       Config
	interactions *Interactions
}

// SetupRoutes registers the admin API on e and returns the registry it serves.
func SetupRoutes(e *echo.Echo, config Config) *Interactions {
	if config.SpecVersion == models.SpecUnknown {
		config.SpecVersion = models.V4
	}
	if config.WaitDelay == 0 {
		config.WaitDelay = defaultDelay
	}
	if config.WaitDuration == 0 {
		config.WaitDuration = defaultDuration
	}

	a := &api{
		config:       config,
		interactions: NewInteractions(),
	}

	e.GET("/ready", a.readinessHandler)
	e.POST("/pacts", a.loadPactHandler)
	e.POST("/pacts/convert", a.convertHandler)
	e.GET("/interactions", a.interactionsHandler)
	e.DELETE("/interactions", a.deleteInteractionsHandler)
	e.GET("/interactions/wait", a.interactionsWaitHandler)
	e.GET("/interactions/:key", a.interactionHandler)
	e.POST("/match", a.matchHandler)
	e.POST("/generate", a.generateHandler)

	return a.interactions
}

func (a *api) readinessHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (a *api) loadPactHandler(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to read pact. %s", err.Error()))
	}

	pact, err := models.LoadPact(data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.FromError("unable to load pact", err))
	}

	summary := client.PactSummary{
		Consumer:          pact.Consumer.Name,
		Provider:          pact.Provider.Name,
		PactSpecification: pact.SpecVersion.String(),
		Interactions:      make([]client.InteractionSummary, 0, len(pact.Interactions)),
	}
	for _, interaction := range pact.Interactions {
		stored := a.interactions.Store(interaction)
		log.Infof("storing interaction '%s' (%s)", stored.Description, *stored.Key)
		summary.Interactions = append(summary.Interactions, summarize(stored))
	}

	return c.JSON(http.StatusCreated, summary)
}

func (a *api) convertHandler(c echo.Context) error {
	version := a.config.SpecVersion
	if requested := c.QueryParam("version"); requested != "" {
		version = models.ParseSpecVersion(requested)
		if version == models.SpecUnknown {
			return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unsupported pact specification '%s'", requested))
		}
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to read pact. %s", err.Error()))
	}

	pact, err := models.LoadPact(data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.FromError("unable to load pact", err))
	}

	converted, err := pact.ToJSON(version)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrUnsupportedSpecVersion) {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, httpresponse.FromError("unable to convert pact", err))
	}

	log.Infof("converted pact between %s and %s from %s to %s",
		pact.Consumer.Name, pact.Provider.Name, pact.SpecVersion, version)
	return c.JSONBlob(http.StatusOK, converted)
}

func (a *api) interactionsHandler(c echo.Context) error {
	all := a.interactions.All()
	summaries := make([]client.InteractionSummary, 0, len(all))
	for _, interaction := range all {
		summaries = append(summaries, summarize(interaction))
	}
	return c.JSON(http.StatusOK, summaries)
}

func (a *api) deleteInteractionsHandler(c echo.Context) error {
	log.Info("deleting interactions")
	a.interactions.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (a *api) interactionHandler(c echo.Context) error {
	key := c.Param("key")
	interaction, ok := a.interactions.Load(key)
	if !ok {
		return c.JSON(http.StatusNotFound, httpresponse.Errorf("unable to find interaction '%s'", key))
	}

	out, err := interaction.ToJSON(models.V4)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, httpresponse.FromError("unable to encode interaction", err))
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) interactionsWaitHandler(c echo.Context) error {
	waitFor := c.QueryParam("interaction")
	if waitFor == "" {
		return c.JSON(http.StatusBadRequest, httpresponse.Error("interaction is required"))
	}

	duration := a.config.WaitDuration
	if timeout := c.QueryParam("timeout"); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, httpresponse.Errorf("invalid timeout '%s'", timeout))
		}
		duration = parsed
	}

	log.WithField("wait_for", waitFor).Infof("waiting")
	retryFor(c.Request().Context(), func(timeLeft time.Duration) bool {
		changed := a.interactions.notify.Changed()
		if _, ok := a.interactions.Load(waitFor); ok {
			return true
		}
		log.WithFields(log.Fields{
			"wait_for":       waitFor,
			"time_remaining": timeLeft,
		}).Debug("retry")
		wait(changed, timeLeft)
		return false
	}, a.config.WaitDelay, duration)

	interaction, ok := a.interactions.Load(waitFor)
	if !ok {
		return c.JSON(http.StatusRequestTimeout, httpresponse.Errorf("timeout waiting for interaction '%s'", waitFor))
	}
	return c.JSON(http.StatusOK, summarize(interaction))
}

func summarize(interaction models.Interaction) client.InteractionSummary {
	summary := client.InteractionSummary{
		Description: interaction.Description,
		Type:        interaction.TypeName(),
		Pending:     interaction.Pending,
	}
	if interaction.Key != nil {
		summary.Key = *interaction.Key
	}
	if ct, ok := interaction.ContentType(); ok {
		summary.ContentType = ct.String()
	}
	return summary
}
