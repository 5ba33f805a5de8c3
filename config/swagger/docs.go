// Package swagger registers the OpenAPI description served at /swagger/index.html.
// Regenerate with: swag init -o config/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["test"],
                "summary": "Endpoint just pings the server",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/games": {
            "get": {
                "produces": ["application/json"],
                "tags": ["games"],
                "summary": "Lists the playable games",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/guest": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Creates a guest participant",
                "parameters": [
                    {"type": "string", "description": "Name shown to the other players", "name": "nickname", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/auth/logout": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["auth"],
                "summary": "Logs the guest out",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/parties": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Creates a new party",
                "parameters": [
                    {"type": "string", "name": "name", "in": "formData"},
                    {"type": "string", "name": "secret", "in": "formData"}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/auth/parties/{party_id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Gives the state of a party",
                "parameters": [{"type": "string", "name": "party_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Disbands a party",
                "parameters": [{"type": "string", "name": "party_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/auth/parties/{party_id}/join": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Joins a party",
                "parameters": [
                    {"type": "string", "name": "party_id", "in": "path", "required": true},
                    {"type": "string", "name": "secret", "in": "formData"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/auth/parties/{party_id}/leave": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Leaves a party",
                "parameters": [{"type": "string", "name": "party_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/parties/{party_id}/down/{game_code}": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Toggles the caller's down-vote for a game",
                "parameters": [
                    {"type": "string", "name": "party_id", "in": "path", "required": true},
                    {"type": "string", "name": "game_code", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/auth/parties/{party_id}/matches": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Lists the matches of a party for the caller",
                "parameters": [{"type": "string", "name": "party_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/parties/{party_id}/history": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Lists the archived matches of a party",
                "parameters": [{"type": "string", "name": "party_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/auth/history": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["party"],
                "summary": "Lists the archived matches of the caller",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/auth/matches/{match_id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["match"],
                "summary": "Gives the caller's view of a match",
                "parameters": [{"type": "string", "name": "match_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/auth/matches/{match_id}/moves": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "tags": ["match"],
                "summary": "Submits a move",
                "parameters": [
                    {"type": "string", "name": "match_id", "in": "path", "required": true},
                    {"name": "move", "in": "body", "required": true, "schema": {"type": "object", "properties": {"move": {"type": "string"}, "turn": {"type": "integer"}}}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/auth/matches/{match_id}/squares/{square}": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["match"],
                "summary": "Activates a board square",
                "parameters": [
                    {"type": "string", "name": "match_id", "in": "path", "required": true},
                    {"type": "string", "name": "square", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Turnato API",
	Description:      "Parties, down-vote matchmaking and turn-based matches",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
