package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Defense Scheduler API",
        "description": "Builds defense schedules that balance instructor workload and avoid double bookings",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Optimization", "description": "Schedule optimization runs, previews and stored versions"},
        {"name": "Observability", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/api/v1/optimizations": {
            "post": {
                "tags": ["Optimization"],
                "summary": "Optimize a defense schedule synchronously",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Preview", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload, options or weights", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Insufficient input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimizations/jobs": {
            "post": {
                "tags": ["Optimization"],
                "summary": "Queue an optimization",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimizations/{id}": {
            "get": {
                "tags": ["Optimization"],
                "summary": "Get a preview or queued run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimizations/{id}/export": {
            "post": {
                "tags": ["Optimization"],
                "summary": "Export a run's assignments as CSV or JSON",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "required": false, "type": "string", "enum": ["csv", "json"]}
                ],
                "responses": {
                    "201": {"description": "Signed download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run not completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimization-exports/{token}": {
            "get": {
                "tags": ["Optimization"],
                "summary": "Download an exported schedule",
                "produces": ["text/csv", "application/json"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimizations/save": {
            "post": {
                "tags": ["Optimization"],
                "summary": "Store a run as the next version of its session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveOptimizationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run not completed or best-effort without opt-in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimization-runs": {
            "get": {
                "tags": ["Optimization"],
                "summary": "List stored versions of a session",
                "parameters": [
                    {"name": "sessionId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/optimization-runs/{id}/assignments": {
            "get": {
                "tags": ["Optimization"],
                "summary": "List assignments of a stored run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/metrics/system": {
            "get": {
                "tags": ["Observability"],
                "summary": "Metrics snapshot",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "Project": {
            "type": "object",
            "required": ["id", "responsibleId"],
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "kind": {"type": "string", "enum": ["FINAL", "INTERIM"]},
                "responsibleId": {"type": "string"},
                "juryCount": {"type": "integer", "minimum": 0}
            }
        },
        "Instructor": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}}
        },
        "Classroom": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "string"}, "capacity": {"type": "integer"}}
        },
        "Timeslot": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "string"}, "index": {"type": "integer"}, "start": {"type": "string", "format": "date-time"}}
        },
        "Problem": {
            "type": "object",
            "properties": {
                "projects": {"type": "array", "items": {"$ref": "#/definitions/Project"}},
                "instructors": {"type": "array", "items": {"$ref": "#/definitions/Instructor"}},
                "classrooms": {"type": "array", "items": {"$ref": "#/definitions/Classroom"}},
                "timeslots": {"type": "array", "items": {"$ref": "#/definitions/Timeslot"}}
            }
        },
        "Weights": {
            "type": "object",
            "properties": {
                "coverage": {"type": "number"},
                "consecutive": {"type": "number"},
                "loadBalance": {"type": "number"},
                "classroomSwitch": {"type": "number"},
                "gap": {"type": "number"},
                "conflict": {"type": "number"},
                "earlySlot": {"type": "number"},
                "responsibleWeight": {"type": "number"},
                "juryWeight": {"type": "number"}
            }
        },
        "Options": {
            "type": "object",
            "properties": {
                "algorithm": {"type": "string", "enum": ["population", "temperature", "memory", "portfolio"]},
                "iterations": {"type": "integer"},
                "populationSize": {"type": "integer"},
                "mutationRate": {"type": "number"},
                "initialTemperature": {"type": "number"},
                "coolingRate": {"type": "number"},
                "tabuTenure": {"type": "integer"},
                "neighborhoodSize": {"type": "integer"},
                "maxDurationMs": {"type": "integer"},
                "stallLimit": {"type": "integer"},
                "restarts": {"type": "integer"},
                "workers": {"type": "integer"},
                "seed": {"type": "integer"},
                "resolveEachMove": {"type": "boolean"},
                "weights": {"$ref": "#/definitions/Weights"}
            }
        },
        "OptimizeRequest": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "problem": {"$ref": "#/definitions/Problem"},
                "options": {"$ref": "#/definitions/Options"}
            }
        },
        "SaveOptimizationRequest": {
            "type": "object",
            "required": ["runId"],
            "properties": {
                "runId": {"type": "string"},
                "sessionId": {"type": "string"},
                "allowBestEffort": {"type": "boolean"}
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
