package ginserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

//go:embed swagger/openapi.json
var openAPISpec []byte

//go:embed swagger/index.html
var swaggerHTML string

const swaggerDocPath = "/swagger/doc.json"

var openAPIMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {}, "patch": {}, "head": {}, "options": {},
}

// registerSwaggerRoutes serves the API document trimmed to the routes the engine mounts,
// so it must run after the /api group is wired.
func registerSwaggerRoutes(router *gin.Engine) {
	doc, docErr := mountedAPIDocument(openAPISpec, router.Routes())
	router.GET(swaggerDocPath, func(c *gin.Context) {
		if docErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "api document unavailable"})
			return
		}
		c.Data(http.StatusOK, "application/json", doc)
	})
	router.GET("/swagger", func(c *gin.Context) {
		html := strings.ReplaceAll(swaggerHTML, "{{SPEC_URL}}", swaggerDocPath)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	})
}

// mountedAPIDocument drops operations from spec that have no matching route.
func mountedAPIDocument(spec []byte, routes gin.RoutesInfo) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(spec, &doc); err != nil {
		return nil, fmt.Errorf("openapi: decode document: %w", err)
	}
	var paths map[string]map[string]json.RawMessage
	if err := json.Unmarshal(doc["paths"], &paths); err != nil {
		return nil, fmt.Errorf("openapi: decode paths: %w", err)
	}

	mounted := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		mounted[strings.ToLower(r.Method)+" "+openAPIPath(r.Path)] = struct{}{}
	}
	for path, item := range paths {
		operations := 0
		for key := range item {
			if _, isMethod := openAPIMethods[key]; !isMethod {
				continue
			}
			if _, ok := mounted[key+" "+path]; !ok {
				delete(item, key)
				continue
			}
			operations++
		}
		if operations == 0 {
			delete(paths, path)
		}
	}

	raw, err := json.Marshal(paths)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode paths: %w", err)
	}
	doc["paths"] = raw
	return json.Marshal(doc)
}

// openAPIPath rewrites gin parameters such as :id into {id}.
func openAPIPath(route string) string {
	segments := strings.Split(route, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
