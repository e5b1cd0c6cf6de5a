package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Admission API",
        "description": "Admission campaign tracking with capacity-constrained deferred acceptance",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Admin authentication"},
        {"name": "Admission", "description": "Computed admission outcomes"},
        {"name": "Snapshots", "description": "Raw snapshot views"},
        {"name": "Imports", "description": "CSV day imports"},
        {"name": "Reports", "description": "PDF and CSV reports"}
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
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/admission/{day}": {
            "get": {
                "tags": ["Admission"],
                "summary": "Per-program admission outcomes for a campaign day",
                "parameters": [
                    {"name": "day", "in": "path", "required": true, "type": "string", "description": "Campaign day, or latest for the most recently imported one"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown day"}
                }
            }
        },
        "/admission/{day}/cutoffs": {
            "get": {
                "tags": ["Admission"],
                "summary": "Cutoff table for a campaign day",
                "parameters": [
                    {"name": "day", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/snapshots/{day}/programs/{code}": {
            "get": {
                "tags": ["Snapshots"],
                "summary": "Paged application rows of one program",
                "parameters": [
                    {"name": "day", "in": "path", "required": true, "type": "string"},
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown program"}
                }
            }
        },
        "/snapshots/{day}/applicants": {
            "get": {
                "tags": ["Snapshots"],
                "summary": "Per-applicant ranked application lists",
                "parameters": [
                    {"name": "day", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/{day}": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import one day's CSV exports as a new snapshot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "day", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad input"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/imports/reset": {
            "post": {
                "tags": ["Imports"],
                "summary": "Drop all admission data and recreate the empty schema",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/reports/{day}": {
            "post": {
                "tags": ["Reports"],
                "summary": "Enqueue PDF report generation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "day", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/jobs/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job"}
                }
            }
        },
        "/reports/jobs/{id}/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the rendered PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Report not ready"}
                }
            }
        },
        "/reports/{day}/admitted.csv": {
            "get": {
                "tags": ["Reports"],
                "summary": "Admitted lists as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "day", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "AdmittedApplicant": {
            "type": "object",
            "properties": {
                "applicant_id": {"type": "integer"},
                "score": {"type": "integer"}
            }
        },
        "AdmissionResult": {
            "type": "object",
            "properties": {
                "admitted": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AdmittedApplicant"}
                },
                "cutoff": {"type": "integer"},
                "display_cutoff": {"type": "integer"},
                "consent_count": {"type": "integer"}
            }
        },
        "CutoffRow": {
            "type": "object",
            "properties": {
                "program_code": {"type": "string"},
                "program_name": {"type": "string"},
                "seats": {"type": "integer"},
                "consent_count": {"type": "integer"},
                "cutoff": {"type": "integer"},
                "display_cutoff": {"type": "integer"},
                "filled": {"type": "boolean"}
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
