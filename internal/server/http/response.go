package httpserver

import (
	"github.com/helixir/literature-search-service/internal/papersources"
)

type engineResponse struct {
	Engine         string   `json:"engine"`
	Name           string   `json:"name"`
	BaseURL        string   `json:"base_url"`
	Endpoint       string   `json:"endpoint"`
	Format         string   `json:"format"`
	Required       []string `json:"required_parameters"`
	RequiresAPIKey bool     `json:"requires_api_key"`
}

type listEnginesResponse struct {
	Engines []engineResponse `json:"engines"`
}

func descriptorToResponse(d papersources.Descriptor) engineResponse {
	required := make([]string, len(d.Required))
	copy(required, d.Required)
	return engineResponse{
		Engine:         string(d.Engine),
		Name:           d.Name,
		BaseURL:        d.BaseURL,
		Endpoint:       d.Endpoint,
		Format:         string(d.Format),
		Required:       required,
		RequiresAPIKey: d.KeyParam != "",
	}
}
