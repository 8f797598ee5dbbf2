// Package docs registers the OpenAPI document served under /swagger.
package docs

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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/api/v1/decisions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "List decisions",
                "parameters": [
                    {"type": "string", "description": "Building filter", "name": "buildingId", "in": "query"},
                    {"type": "string", "description": "open, closed or cancelled", "name": "status", "in": "query"},
                    {"type": "integer", "description": "Page size, max 200", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ListDecisionsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "Create a decision",
                "parameters": [
                    {"type": "string", "description": "Replay key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Decision", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreateDecisionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.DecisionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/decisions/{decision_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "Get a decision",
                "parameters": [
                    {"type": "string", "description": "Decision id", "name": "decision_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.DecisionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "Update a decision",
                "parameters": [
                    {"type": "string", "description": "Decision id", "name": "decision_id", "in": "path", "required": true},
                    {"description": "Patch", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.UpdateDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.DecisionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["decisions"],
                "summary": "Cancel a decision",
                "parameters": [
                    {"type": "string", "description": "Decision id", "name": "decision_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/decisions/{decision_id}/ballots": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ballots"],
                "summary": "Cast a ballot",
                "parameters": [
                    {"type": "string", "description": "Decision id", "name": "decision_id", "in": "path", "required": true},
                    {"description": "Ballot", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CastBallotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.BallotReceiptResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "http.CreateDecisionRequest": {
            "type": "object",
            "properties": {
                "buildingId": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "kind": {"type": "string", "enum": ["community_decision", "improvement", "expense", "policy", "other"]},
                "options": {"type": "array", "items": {"type": "string"}},
                "closingAt": {"type": "string"},
                "quorumRequired": {"type": "number"},
                "totalEligibleVoters": {"type": "integer"}
            }
        },
        "http.UpdateDecisionRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "kind": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "buildingId": {"type": "string"},
                "closingAt": {"type": "string"},
                "quorumRequired": {"type": "number"},
                "totalEligibleVoters": {"type": "integer"},
                "status": {"type": "string", "enum": ["open", "closed", "cancelled"]}
            }
        },
        "http.OptionTallyResponse": {
            "type": "object",
            "properties": {
                "option": {"type": "string"},
                "count": {"type": "integer"},
                "percentage": {"type": "number"}
            }
        },
        "http.DecisionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "companyId": {"type": "string"},
                "buildingId": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "kind": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "closingAt": {"type": "string"},
                "quorumRequired": {"type": "number"},
                "totalEligibleVoters": {"type": "integer"},
                "requiresQuorum": {"type": "boolean"},
                "status": {"type": "string"},
                "winningOption": {"type": "string"},
                "totalBallotsAtClose": {"type": "integer"},
                "createdBy": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "closedAt": {"type": "string"},
                "cancelledAt": {"type": "string"},
                "tallyResults": {"type": "array", "items": {"$ref": "#/definitions/http.OptionTallyResponse"}},
                "totalBallots": {"type": "integer"},
                "quorumMet": {"type": "boolean"},
                "resultDrift": {"type": "boolean"},
                "replayed": {"type": "boolean"}
            }
        },
        "http.ListDecisionsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/http.DecisionResponse"}}
            }
        },
        "http.CastBallotRequest": {
            "type": "object",
            "properties": {
                "selectedOption": {"type": "string"}
            }
        },
        "http.BallotReceiptResponse": {
            "type": "object",
            "properties": {
                "decisionId": {"type": "string"},
                "selectedOption": {"type": "string"},
                "castAt": {"type": "string"},
                "replaced": {"type": "boolean"}
            }
        },
        "http.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "propdesk API",
	Description:      "Community decisions, ballots and results for building communities.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
