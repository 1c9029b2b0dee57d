package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"devteam/internal/artifact"
	"devteam/internal/chat"
	"devteam/internal/domain"
	"devteam/internal/engine"
	"devteam/internal/repo"
	"devteam/internal/store"
)

// Assistant answers free-text prompts. chat.Client implements it.
type Assistant interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Config for the HTTP API handler.
type Config struct {
	Store  *store.Store
	Engine *engine.Engine
	// Journal is nil when the event journal is disabled.
	Journal  *repo.Repo
	Chat     Assistant
	BasePath string
	Auth     AuthConfig
	Logger   *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"project not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"project_id\":\"42\"}"`
}

type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the dev-team API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Store == nil || cfg.Engine == nil {
		return nil, errors.New("server: store and engine are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Dev Team Simulator API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerMe(group)
	registerProjects(group, cfg)
	registerStart(group, cfg)
	registerStream(group, cfg, newHub(cfg.Engine))
	registerArtifacts(group, cfg)
	registerEvents(group, cfg)
	registerChat(group, cfg)
	registerOpenAPI(router, api, basePath, cfg.Auth.enabled())

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func projectNotFound(id string) huma.StatusError {
	return newAPIError(http.StatusNotFound, "not_found", "project not found", map[string]any{"project_id": id})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string, secured bool) {
	var (
		once sync.Once
		spec []byte
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		// The document is patched in place, so only the first request builds it.
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			if secured {
				applyAuthSecurity(oas, basePath)
			}
			spec, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join("/", basePath, "health")
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Dev Team Simulator API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerMe(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		p, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		roles := p.Roles
		if roles == nil {
			roles = []string{}
		}
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: map[string]any{"actor_id": p.ActorID, "roles": roles, "source": p.Source}}, nil
	})
}

func registerProjects(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		p := cfg.Store.Create(input.Body.Name, input.Body.Description)
		cfg.Logger.Info("project created", "project_id", p.ID, "name", p.Name)
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects, newest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: mapProjects(cfg.Store.List(), cfg.Engine)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, ok := cfg.Store.Get(input.ProjectID)
		if !ok {
			return nil, projectNotFound(input.ProjectID)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, cfg.Engine.Running(p.ID))}, nil
	})
}

func registerStart(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "start-simulation",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/start",
		Summary:       "Start the simulation",
		Description:   "Starting a running or finished project changes nothing and returns its current state.",
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if _, ok := cfg.Store.Get(input.ProjectID); !ok {
			return nil, projectNotFound(input.ProjectID)
		}
		cfg.Engine.Start(input.ProjectID)
		p, _ := cfg.Store.Get(input.ProjectID)
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p, cfg.Engine.Running(p.ID))}, nil
	})
}

func registerArtifacts(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-artifacts",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/artifacts",
		Summary:     "List formatted artifacts",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []ArtifactResponse `json:"body"`
	}, error) {
		p, ok := cfg.Store.Get(input.ProjectID)
		if !ok {
			return nil, projectNotFound(input.ProjectID)
		}
		items := make([]ArtifactResponse, 0, len(p.Artifacts))
		for _, a := range p.Artifacts {
			items = append(items, artifactResponse(a))
		}
		return &struct {
			Body []ArtifactResponse `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-artifact",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/artifacts/{artifact_id}",
		Summary:     "Get formatted artifact",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID  string `path:"project_id"`
		ArtifactID string `path:"artifact_id"`
	}) (*struct {
		Body ArtifactResponse `json:"body"`
	}, error) {
		p, ok := cfg.Store.Get(input.ProjectID)
		if !ok {
			return nil, projectNotFound(input.ProjectID)
		}
		a, ok := p.Artifact(input.ArtifactID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "artifact not found", map[string]any{"artifact_id": input.ArtifactID})
		}
		return &struct {
			Body ArtifactResponse `json:"body"`
		}{Body: artifactResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-source",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/source",
		Summary:     "Get the project's source code artifact",
		Description: "Returns the first code artifact, or the first artifact when no code exists yet.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ArtifactResponse `json:"body"`
	}, error) {
		p, ok := cfg.Store.Get(input.ProjectID)
		if !ok {
			return nil, projectNotFound(input.ProjectID)
		}
		a, ok := artifact.PreferredCode(p.Artifacts)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "project has no artifacts yet", map[string]any{"project_id": p.ID})
		}
		return &struct {
			Body ArtifactResponse `json:"body"`
		}{Body: artifactResponse(a)}, nil
	})
}

func registerEvents(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/events",
		Summary:     "List recent journal events",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Type      string `query:"type"`
		Limit     int    `query:"limit" default:"50"`
		Cursor    string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		if cfg.Journal == nil {
			return nil, newAPIError(http.StatusNotFound, "journal_disabled", "event journal is disabled", nil)
		}
		if _, ok := cfg.Store.Get(input.ProjectID); !ok {
			return nil, projectNotFound(input.ProjectID)
		}
		limit := normalizeLimit(input.Limit)
		var before int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil || parsed <= 0 {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			before = parsed
		}
		items, err := cfg.Journal.LatestEvents(ctx, repo.EventFilters{
			ProjectID: input.ProjectID,
			Type:      input.Type,
			Before:    before,
			Limit:     limit + 1,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
			items = items[:limit]
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/events/{event_id}",
		Summary:     "Get one journal event",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		EventID   int64  `path:"event_id"`
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		if cfg.Journal == nil {
			return nil, newAPIError(http.StatusNotFound, "journal_disabled", "event journal is disabled", nil)
		}
		evt, err := cfg.Journal.GetEvent(ctx, input.EventID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && evt.ProjectID != input.ProjectID) {
			return nil, newAPIError(http.StatusNotFound, "not_found", "event not found", map[string]any{"event_id": input.EventID})
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(evt)}, nil
	})
}

func registerChat(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/chat",
		Summary:     "Ask the assistant",
		Description: "Assistant failures are reported in the body with a user-facing message, never as a server error.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ChatRequest `json:"body"`
	}) (*struct {
		Body ChatResponse `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Prompt) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "prompt is required", nil)
		}
		var text string
		err := chat.ErrMissingCredential
		if cfg.Chat != nil {
			text, err = cfg.Chat.Ask(ctx, input.Body.Prompt)
		}
		if err != nil {
			failure := "unavailable"
			if errors.Is(err, chat.ErrMissingCredential) {
				failure = "credential"
			}
			cfg.Logger.Warn("chat failed", "failure", failure, "error", err)
			return &struct {
				Body ChatResponse `json:"body"`
			}{Body: ChatResponse{Text: chat.UserMessage(err), Failure: failure}}, nil
		}
		return &struct {
			Body ChatResponse `json:"body"`
		}{Body: ChatResponse{Text: text}}, nil
	})
}

func bodyBytes(ctx context.Context) []byte {
	if v := ctx.Value(bodyBytesKey{}); v != nil {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

func normalizeLimit(in int) int {
	if in <= 0 {
		return defaultEventsLimit
	}
	if in > maxEventsLimit {
		return maxEventsLimit
	}
	return in
}

func mapProjects(items []domain.Project, e *engine.Engine) []ProjectResponse {
	res := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		res = append(res, projectResponse(p, e.Running(p.ID)))
	}
	return res
}
