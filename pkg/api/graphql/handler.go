package graphql

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/graphql-go/graphql"
	graphqlhandler "github.com/graphql-go/handler"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/internal/logger"
	"github.com/0xmhha/ledger-query/pkg/resolver"
)

// Handler handles GraphQL requests
type Handler struct {
	schema  *Schema
	handler *graphqlhandler.Handler
	logger  *zap.Logger
}

// NewHandler creates a new GraphQL handler
func NewHandler(res *resolver.Resolver, log *zap.Logger) (*Handler, error) {
	schema, err := NewSchema(res, logger.WithComponent(log, logger.ComponentGraphQL))
	if err != nil {
		return nil, err
	}

	h := graphqlhandler.New(&graphqlhandler.Config{
		Schema:     &schema.schema,
		Pretty:     true,
		GraphiQL:   false,
		Playground: false,
	})

	return &Handler{
		schema:  schema,
		handler: h,
		logger:  schema.logger,
	}, nil
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqLogger := h.logger
	if id := middleware.GetReqID(r.Context()); id != "" {
		reqLogger = reqLogger.With(zap.String("request_id", id))
	}
	h.handler.ContextHandler(logger.WithLogger(r.Context(), reqLogger), w, r)
}

// PlaygroundHandler returns a handler for GraphQL playground pointed at endpoint
func (h *Handler) PlaygroundHandler(endpoint string) http.HandlerFunc {
	page := `
<!DOCTYPE html>
<html>
<head>
  <title>GraphQL Playground</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/css/index.css" />
  <script src="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/js/middleware.js"></script>
</head>
<body>
  <div id="root"></div>
  <script>
    window.addEventListener('load', function (event) {
      GraphQLPlayground.init(document.getElementById('root'), {
        endpoint: '` + endpoint + `',
      })
    })
  </script>
</body>
</html>
`
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	}
}

// ExecuteQuery executes a GraphQL query (for testing)
func (h *Handler) ExecuteQuery(ctx context.Context, query string, variables map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         h.schema.schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        logger.WithLogger(ctx, h.logger),
	})
}
