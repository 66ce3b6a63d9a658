package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"intuitive/internal/errors"
)

var playgroundPage = template.Must(template.New("playground").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>intuitive GraphQL</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css">
</head>
<body style="margin: 0;">
  <div id="graphiql" style="height: 100vh;"></div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: {{.Endpoint}} });
    ReactDOM.createRoot(document.getElementById('graphiql')).render(
      React.createElement(GraphiQL, { fetcher: fetcher, headerEditorEnabled: true }),
    );
  </script>
</body>
</html>
`))

// PlaygroundHandler serves an in-browser GraphQL IDE pointed at the endpoint.
type PlaygroundHandler struct {
	page []byte
}

// NewPlaygroundHandler renders the IDE page once for endpoint.
func NewPlaygroundHandler(endpoint string) (*PlaygroundHandler, error) {
	var buf bytes.Buffer
	if err := playgroundPage.Execute(&buf, struct{ Endpoint string }{Endpoint: endpoint}); err != nil {
		return nil, errors.Wrap(err, "render playground")
	}

	return &PlaygroundHandler{page: buf.Bytes()}, nil
}

// Serve writes the IDE page.
func (h *PlaygroundHandler) Serve(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, h.page)
}
