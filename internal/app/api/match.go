package api

import (
	"encoding/json"
	"net/http"

	"github.com/form3tech-oss/pact-core/internal/app/httpresponse"
	"github.com/form3tech-oss/pact-core/pkg/client"
	"github.com/form3tech-oss/pact-core/pkg/matchingrules"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func (a *api) matchHandler(c echo.Context) error {
	var req client.MatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse match request. %s", err.Error()))
	}

	rules, err := matchingrules.FromJSON(req.Rules)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.FromError("unable to load matching rules", err))
	}

	category := req.Category
	if category == "" {
		category = matchingrules.CategoryBody
	}

	mismatches, err := match(rules, category, req.Expected, req.Actual)
	if err != nil {
		return c.JSON(http.StatusBadRequest, httpresponse.FromError("unable to compare values", err))
	}
	if mismatches == nil {
		mismatches = []matchingrules.Mismatch{}
	}

	return c.JSON(http.StatusOK, client.MatchResponse{
		Matched:    len(mismatches) == 0,
		Mismatches: mismatches,
	})
}

func match(rules matchingrules.MatchingRules, category string, expected, actual json.RawMessage) ([]matchingrules.Mismatch, error) {
	switch category {
	case matchingrules.CategoryHeader, matchingrules.CategoryQuery:
		var e, a map[string][]string
		if err := decodePair(expected, actual, &e, &a); err != nil {
			return nil, err
		}
		return rules.Category(category).MatchValues(e, a), nil
	case matchingrules.CategoryStatus:
		var e, a int
		if err := decodePair(expected, actual, &e, &a); err != nil {
			return nil, err
		}
		return rules.MatchStatus(e, a), nil
	}

	e, err := matchingrules.DecodeJSON(expected)
	if err != nil {
		return nil, errors.Wrap(err, "expected")
	}
	a, err := matchingrules.DecodeJSON(actual)
	if err != nil {
		return nil, errors.Wrap(err, "actual")
	}

	if category == matchingrules.CategoryMetadata {
		em, eok := e.(map[string]interface{})
		am, aok := a.(map[string]interface{})
		if !eok || !aok {
			return nil, errors.New("metadata must be JSON objects")
		}
		return rules.Category(category).MatchMetadata(em, am), nil
	}
	return rules.Category(category).MatchBody(e, a), nil
}

func decodePair(expected, actual json.RawMessage, e, a interface{}) error {
	if err := json.Unmarshal(expected, e); err != nil {
		return errors.Wrap(err, "expected")
	}
	if err := json.Unmarshal(actual, a); err != nil {
		return errors.Wrap(err, "actual")
	}
	return nil
}
