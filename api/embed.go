// Package api holds the OpenAPI document of the consumer HTTP surface.
package api

import _ "embed"

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen -config oapi-codegen.yaml openapi.yaml

//go:embed openapi.yaml
var OpenAPISpec []byte
