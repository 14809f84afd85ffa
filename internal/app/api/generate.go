package api

import (
	"net/http"

	"github.com/form3tech-oss/pact-core/internal/app/httpresponse"
	"github.com/form3tech-oss/pact-core/pkg/client"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/labstack/echo/v4"
)

func (a *api) generateHandler(c echo.Context) error {
	var req client.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse generate request. %s", err.Error()))
	}

	gens, err := generators.FromJSON(req.Generators)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.FromError("unable to load generators", err))
	}

	ctx := &generators.Context{
		ProviderState: req.ProviderState,
		MockServerURL: a.config.MockServerURL,
		Random:        a.config.Random,
	}
	if req.MockServerURL != "" {
		ctx.MockServerURL = req.MockServerURL
	}
	if req.Seed != nil {
		ctx.Random = generators.NewSource(*req.Seed)
	}

	category := req.Category
	if category == "" {
		category = generators.CategoryBody
	}
	gen := gens.Category(category)

	var resp client.GenerateResponse
	var errs []error
	switch category {
	case generators.CategoryHeader, generators.CategoryQuery:
		resp.Values, errs = gen.ApplyToValues(ctx, req.Values)
	case generators.CategoryMetadata:
		resp.Metadata, errs = gen.ApplyToMetadata(ctx, req.Metadata)
	case generators.CategoryPath, generators.CategoryStatus:
		resp.Value, errs = gen.ApplyToValue(ctx, req.Value)
	default:
		var body []byte
		body, errs = gen.ApplyToBody(ctx, req.Body)
		resp.Body = body
	}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, err.Error())
	}

	return c.JSON(http.StatusOK, resp)
}
