package tool

import (
	"fmt"
	"net/http"
	"time"

	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

// Config is loaded with the TOOLS prefix.
type Config struct {
	Timeout          time.Duration `envconfig:"TIMEOUT" default:"60s"`
	BestRouteTimeout time.Duration `envconfig:"BEST_ROUTE_TIMEOUT" split_words:"true" default:"5m"`
	Concurrency      int           `envconfig:"CONCURRENCY" default:"4"`
	RatePerSecond    float64       `envconfig:"RATE_PER_SECOND" split_words:"true" default:"2"`
	RateBurst        int           `envconfig:"RATE_BURST" split_words:"true" default:"4"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" split_words:"true" default:"45s"`
	UserAgent        string        `envconfig:"USER_AGENT" split_words:"true" default:"transpectra-logistics-agent/1.0"`

	FlightsBaseURL   string `envconfig:"FLIGHTS_BASE_URL" split_words:"true" default:"https://www.in.cheapflights.com"`
	TrainsBaseURL    string `envconfig:"TRAINS_BASE_URL" split_words:"true" default:"https://www.trainman.in"`
	ORSBaseURL       string `envconfig:"ORS_BASE_URL" split_words:"true" default:"https://api.openrouteservice.org"`
	ORSAPIKey        string `envconfig:"ORS_API_KEY" split_words:"true"`
	NominatimBaseURL string `envconfig:"NOMINATIM_BASE_URL" split_words:"true" default:"https://nominatim.openstreetmap.org"`
	ProductsCSV      string `envconfig:"PRODUCTS_CSV" split_words:"true" default:"data/dataset.csv"`
	ForecastURL      string `envconfig:"FORECAST_URL" split_words:"true"`
}

// Deps carries the collaborators shared by the capability tools.
type Deps struct {
	Config     Config
	Fetcher    *Fetcher
	Geocoder   Geocoder
	Catalogue  *Catalogue
	Forecaster StockForecaster
	Planner    RoutePlanner
	Now        func() time.Time
}

// NewDeps builds the default collaborators from cfg. Planner is left nil;
// the runtime fills it once the route pipeline exists.
func NewDeps(cfg Config) Deps {
	fetcher := NewFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.RatePerSecond, cfg.RateBurst, cfg.UserAgent)
	return Deps{
		Config:     cfg,
		Fetcher:    fetcher,
		Geocoder:   NewNominatimGeocoder(fetcher, cfg.NominatimBaseURL),
		Catalogue:  NewCatalogue(cfg.ProductsCSV),
		Forecaster: NewHTTPForecaster(fetcher, cfg.ForecastURL),
		Now:        time.Now,
	}
}

// BuildForAgent returns the registry a model role may call. The planner
// gathers route data; the assistant answers warehouse questions and can run
// the whole route pipeline. The summarizer gets no tools.
func BuildForAgent(agentType contractx.AgentType, deps Deps) (*Registry, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	reg := NewRegistry()
	var defs []Definition
	switch agentType {
	case contractx.AgentTypePlanner:
		defs = []Definition{
			AirwaysDefinition(deps.Fetcher, deps.Config.FlightsBaseURL, deps.Now),
			RailwaysDefinition(deps.Fetcher, deps.Config.TrainsBaseURL, deps.Now),
			RoadwaysDefinition(deps.Fetcher, deps.Config.ORSBaseURL, deps.Config.ORSAPIKey),
			SeawaysDefinition(deps.Geocoder),
		}
	case contractx.AgentTypeAssistant:
		if deps.Planner == nil {
			return nil, fmt.Errorf("%w: assistant tools need a route planner", contractx.ErrValidation)
		}
		defs = []Definition{
			ProductsDefinition(deps.Catalogue),
			StockForecastDefinition(deps.Forecaster),
			BestRouteDefinition(deps.Planner, deps.Config.BestRouteTimeout),
		}
	case contractx.AgentTypeSummarizer:
	default:
		return nil, fmt.Errorf("%w: unknown agent type %q", contractx.ErrValidation, agentType)
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
