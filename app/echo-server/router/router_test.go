package router

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"rateview/internal/rest"
)

func registeredRoutes(e *echo.Echo) map[string]string {
	routes := make(map[string]string)
	for _, route := range e.Routes() {
		routes[route.Method+" "+route.Path] = route.Name
	}
	return routes
}

func TestSetExposureRoutes(t *testing.T) {
	e := echo.New()
	SetExposureRoutes(e, rest.NewExposureHandler(nil))

	routes := registeredRoutes(e)
	for _, want := range []string{
		http.MethodGet + " /exposure",
		http.MethodPost + " /exposure/refresh",
		http.MethodDelete + " /exposure/cache",
	} {
		if _, ok := routes[want]; !ok {
			t.Errorf("route %q not registered (have %v)", want, routes)
		}
	}
}

func TestSetScoringRoutes(t *testing.T) {
	e := echo.New()
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	SetScoringRoutes(e, rest.NewScoringHandler(nil), passthrough)

	routes := registeredRoutes(e)
	for _, want := range []string{
		http.MethodPost + " /internal/scoring/run",
		http.MethodGet + " /internal/scoring/rankings",
	} {
		if _, ok := routes[want]; !ok {
			t.Errorf("route %q not registered (have %v)", want, routes)
		}
	}
}

func TestSetEngagementRoutes(t *testing.T) {
	e := echo.New()
	SetEngagementRoutes(e, rest.NewEngagementHandler(nil))

	routes := registeredRoutes(e)
	for _, want := range []string{
		http.MethodPost + " /events",
		http.MethodGet + " /events/products/:id",
		http.MethodGet + " /events/customers/:id",
	} {
		if _, ok := routes[want]; !ok {
			t.Errorf("route %q not registered (have %v)", want, routes)
		}
	}
}
