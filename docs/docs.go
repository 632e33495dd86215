// Package docs registers the OpenAPI document served at /swagger/*.
//
// The path definitions are produced from the handler annotations:
//
//	swag init -g cmd/server/main.go -o docs --parseInternal
//
// Until regenerated, the registered document carries only the API metadata.
package docs

import "github.com/swaggo/swag"

//go:generate swag init -g ../cmd/server/main.go -d .. -o . --parseInternal

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {},
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Foodgram API",
	Description:      "Recipes, favorites, shopping cart and subscriptions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
