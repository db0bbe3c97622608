// Package docs holds the hand-maintained swagger definition served by the
// API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "DayPlan API Documentation",
        "title": "DayPlan API",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http"],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "responses": {
                    "200": {"description": "Server is healthy"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Account created"},
                    "409": {"description": "Email or username taken"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Token pair"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List the unified task collection",
                "description": "Plain tasks, templates, and one occurrence per template per eligible date (virtual or override).",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Task collection"}
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a plain or related task",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Task created"}
                }
            }
        },
        "/tasks/range": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks for a bounded date range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "required": true},
                    {"name": "to", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Task collection for the range"}
                }
            }
        },
        "/tasks/templates": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a recurring-task template",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Template created"}
                }
            }
        },
        "/tasks/{id}": {
            "put": {
                "tags": ["Tasks"],
                "summary": "Update a task (promotes virtual instances)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Updated record"}
                }
            },
            "delete": {
                "tags": ["Tasks"],
                "summary": "Delete a task (excludes recurring occurrences)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/tasks/{id}/toggle": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Toggle a task's completed state",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Current record"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "DayPlan API",
	Description:      "DayPlan API Documentation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
