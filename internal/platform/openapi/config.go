// Package openapi builds the huma configuration shared by the server and handler tests.
package openapi

import (
	"github.com/danielgtaylor/huma/v2"
	// Registers the application/cbor format in huma.DefaultFormats.
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
)

// Title is the API title published in the OpenAPI document.
const Title = "Hello API"

// NewConfig returns huma's default configuration with two changes:
//
//   - the schema-link create hook is removed, so response bodies carry no "$schema"
//     property and POST / returns exactly {"message":"Hello World"};
//   - every application/json request and response in the OpenAPI document is mirrored
//     as application/cbor, which huma negotiates from the Accept header.
//
// An empty docsPath disables the docs UI.
func NewConfig(version, docsPath string) huma.Config {
	cfg := huma.DefaultConfig(Title, version)
	cfg.CreateHooks = nil
	cfg.DocsPath = docsPath
	cfg.OpenAPI.OnAddOperation = append(cfg.OpenAPI.OnAddOperation, mirrorCBOR)
	return cfg
}

func mirrorCBOR(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if mt, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = mt
		}
	}
	for _, resp := range op.Responses {
		if resp == nil || resp.Content == nil {
			continue
		}
		if mt, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = mt
		}
	}
}
