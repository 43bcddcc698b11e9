package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "OnStage API",
        "description": "Schedule builder and conflict engine for dance competitions",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedule", "description": "Running order, lock lifecycle and derived analyses"},
        {"name": "StudioCodes", "description": "Blind-judging studio letter codes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/competitions/{id}/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get the schedule with per-day aggregates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Competition has no schedule"}
                }
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Create an empty draft schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule already exists"}
                }
            }
        },
        "/competitions/{id}/schedule/auto-generate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Generate a draft schedule from confirmed entries",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AutoGenerateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule already exists"}
                }
            }
        },
        "/competitions/{id}/schedule/days/{day}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Derived view of one competition day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "day", "in": "path", "required": true, "type": "integer"},
                    {"name": "sessionStart", "in": "query", "type": "string"},
                    {"name": "gapEntries", "in": "query", "type": "integer"},
                    {"name": "gapMinutes", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/competitions/{id}/schedule/items": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Insert a routine, break or award marker",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InsertItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule is locked"},
                    "422": {"description": "Position out of range"}
                }
            }
        },
        "/competitions/{id}/schedule/items/{itemId}": {
            "delete": {
                "tags": ["Schedule"],
                "summary": "Remove an item and close the running-order gap",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "itemId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "409": {"description": "Schedule is locked"}
                }
            }
        },
        "/competitions/{id}/schedule/reorder": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Move one or many items as a contiguous block",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReorderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule is locked"},
                    "422": {"description": "Invalid ordering operation"}
                }
            }
        },
        "/competitions/{id}/schedule/lock": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Lock the schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/competitions/{id}/schedule/unlock": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Unlock the schedule (admin only)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/competitions/{id}/schedule/conflicts": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Run the dancer-gap conflict detection pass",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "gapEntries", "in": "query", "type": "integer"},
                    {"name": "gapMinutes", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/competitions/{id}/schedule/awards": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Compute award placement markers",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/competitions/{id}/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the run sheet as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Run sheet file"}
                }
            }
        },
        "/competitions/{id}/schedule/audit": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List the lock/unlock audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/competitions/{id}/studio-codes": {
            "get": {
                "tags": ["StudioCodes"],
                "summary": "List assigned codes and pending studios",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/competitions/{id}/studio-codes/assign": {
            "post": {
                "tags": ["StudioCodes"],
                "summary": "Assign letter codes to newly approved studios",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string", "example": "2026-03-14"}
            }
        },
        "AutoGenerateRequest": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string", "example": "2026-03-14"},
                "dayCount": {"type": "integer"},
                "sessionsPerDay": {"type": "integer"}
            }
        },
        "InsertItemRequest": {
            "type": "object",
            "properties": {
                "itemType": {"type": "string", "enum": ["ROUTINE", "BREAK", "AWARD"]},
                "dayNumber": {"type": "integer"},
                "sessionNumber": {"type": "integer"},
                "position": {"type": "integer"},
                "durationMinutes": {"type": "integer"},
                "entryId": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "ReorderRequest": {
            "type": "object",
            "properties": {
                "itemIds": {"type": "array", "items": {"type": "string"}},
                "targetDay": {"type": "integer"},
                "targetSession": {"type": "integer"},
                "targetPosition": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
