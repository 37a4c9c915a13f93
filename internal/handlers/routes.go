package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the link API and the redirect route.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "create-short-url",
		Method:      http.MethodPost,
		Path:        "/api/shorten",
		Summary:     "Create short URL",
		Description: "Returns the existing short URL for a known target, otherwise allocates a new code.",
		Tags:        []string{"URLs"},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "list-urls",
		Method:      http.MethodGet,
		Path:        "/api/urls",
		Summary:     "List short URLs",
		Description: "Lists every short URL, newest first.",
		Tags:        []string{"URLs"},
	}, urlHandler.ListURLs)

	huma.Register(api, huma.Operation{
		OperationID: "get-url",
		Method:      http.MethodGet,
		Path:        "/api/url/{id}",
		Summary:     "Get short URL",
		Tags:        []string{"URLs"},
	}, urlHandler.GetURL)

	huma.Register(api, huma.Operation{
		OperationID: "update-url",
		Method:      http.MethodPut,
		Path:        "/api/url/{id}",
		Summary:     "Update short URL",
		Description: "Replaces the target of a short URL. The code and click count are kept.",
		Tags:        []string{"URLs"},
	}, urlHandler.UpdateURL)

	huma.Register(api, huma.Operation{
		OperationID: "delete-url",
		Method:      http.MethodDelete,
		Path:        "/api/url/{id}",
		Summary:     "Delete short URL",
		Tags:        []string{"URLs"},
	}, urlHandler.DeleteURL)

	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/api/stats",
		Summary:     "Link statistics",
		Tags:        []string{"Stats"},
	}, urlHandler.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
	}, urlHandler.RedirectToURL)
}
