package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Make Your Choice API",
        "description": "Course catalogue and elective voting for university students",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Email-code login and token lifecycle"},
        {"name": "Courses", "description": "Elective catalogue"},
        {"name": "Priorities", "description": "Ranked ballot submission"},
        {"name": "Programs", "description": "Student groups and deadlines"},
        {"name": "Semesters", "description": "Voting rounds"},
        {"name": "Suggestions", "description": "Student-proposed courses"},
        {"name": "Exports", "description": "Priorities snapshots"},
        {"name": "Metrics", "description": "System metrics"}
    ],
    "paths": {
        "/auth/request-code": {
            "post": {
                "tags": ["Auth"],
                "summary": "Request a login code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestCodeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Code sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Email domain not allowed"}
                }
            }
        },
        "/auth/verify-code": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a code for tokens",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyCodeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid email or code"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Refresh an access token",
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Refresh token invalid or revoked"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user info",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List catalogue entries (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["tech", "hum"]},
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "includeArchived", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a catalogue entry (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate title"}
                }
            }
        },
        "/courses/available": {
            "get": {
                "tags": ["Courses"],
                "summary": "List electives available to the current student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["tech", "hum"], "required": true}
                ],
                "responses": {
                    "200": {"description": "Courses plus eligibility meta", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/priorities": {
            "post": {
                "tags": ["Priorities"],
                "summary": "Submit ranked priorities",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitPrioritiesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Ballot recorded"},
                    "400": {"description": "Incomplete or duplicate selection"},
                    "403": {"description": "Not eligible or deadline passed"}
                }
            }
        },
        "/priorities/latest": {
            "get": {
                "tags": ["Priorities"],
                "summary": "Current student's latest ballot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Nothing submitted yet"}
                }
            }
        },
        "/priorities/deadline": {
            "get": {
                "tags": ["Priorities"],
                "summary": "Submission window for the current student",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DeadlineStatus"}}
                }
            }
        },
        "/priorities/log": {
            "get": {
                "tags": ["Priorities"],
                "summary": "Submission log (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "email", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/semesters/active": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Get the active semester",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No active semester"}
                }
            }
        },
        "/semesters/{id}/activate": {
            "post": {
                "tags": ["Semesters"],
                "summary": "Activate a semester (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Activated"},
                    "409": {"description": "Another semester is already active"}
                }
            }
        },
        "/suggestions": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Suggest a new course",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Request a priorities export (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Job queued"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a completed export",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "RequestCodeRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"}
            }
        },
        "VerifyCodeRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "SubmitPrioritiesRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["tech", "hum"]},
                "selections": {"type": "array", "items": {"type": "string"}}
            }
        },
        "DeadlineStatus": {
            "type": "object",
            "properties": {
                "is_passed": {"type": "boolean"},
                "deadline": {"type": "string", "format": "date-time"},
                "display": {"type": "string"}
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
