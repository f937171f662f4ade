package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academa API",
        "description": "Personal academic tracking backend: courses, homeworks, exams, semesters and dashboard",
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
        {"name": "Auth", "description": "Registration and token lifecycle"},
        {"name": "Courses", "description": "Course management"},
        {"name": "Homeworks", "description": "Homework management"},
        {"name": "Exams", "description": "Exam management"},
        {"name": "Assignments", "description": "Unified homework/exam views"},
        {"name": "Semesters", "description": "Semester registry"},
        {"name": "Dashboard", "description": "Aggregated overview"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new account",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue tokens",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Expired or revoked"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the current refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Revoked"}}
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change the account password",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Changed"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete course and its assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/homeworks": {
            "get": {
                "tags": ["Homeworks"],
                "summary": "List homeworks",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Homeworks"],
                "summary": "Create homework",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/homeworks/{id}": {
            "get": {
                "tags": ["Homeworks"],
                "summary": "Get homework",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Homeworks"],
                "summary": "Update homework",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Homeworks"],
                "summary": "Delete homework",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List exams",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Create exam",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/exams/{id}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Get exam",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Exams"],
                "summary": "Update exam",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Exams"],
                "summary": "Delete exam",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "404": {"description": "Not found"}}
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Unified assignment listing",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "hideCompleted", "in": "query", "type": "boolean"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["dueDate", "title", "course", "status", "grade"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["ascend", "descend"]}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/statistics": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Assignment statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "semester", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/upcoming": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Upcoming assignments grouped by course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "window", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/calendar": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Month calendar of assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "month", "in": "query", "type": "integer", "required": true},
                    {"name": "year", "in": "query", "type": "integer", "required": true},
                    {"name": "semester", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/export": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Export the assignment listing as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "required": true, "enum": ["csv", "pdf"]},
                    {"name": "semester", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "File download"}}
            }
        },
        "/semesters": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Resolve the semester set",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Semesters"],
                "summary": "Register a semester label",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already exists"}}
            }
        },
        "/semesters/{name}": {
            "put": {
                "tags": ["Semesters"],
                "summary": "Rename a registered semester (no cascade)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "409": {"description": "Name taken"}}
            },
            "delete": {
                "tags": ["Semesters"],
                "summary": "Delete a registered semester",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Linked data or last semester"}}
            }
        },
        "/semesters/default": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Current active semester",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Semesters"],
                "summary": "Select the active semester",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Selected"}}
            }
        },
        "/dashboard/overview": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard overview",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "force", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "full_name": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
