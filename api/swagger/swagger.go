package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus API",
        "description": "Role-scoped campus management: complaints, events, skill courses, attendance, leave and messaging.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login, refresh and session management"},
        {"name": "Complaints", "description": "Student and faculty complaint routing"},
        {"name": "Events", "description": "Event requests and approvals"},
        {"name": "Skill Courses", "description": "Four-round skill courses and enrollments"},
        {"name": "Attendance", "description": "Subject attendance and summaries"},
        {"name": "Leaves", "description": "Student leave requests"},
        {"name": "Communication", "description": "Direct and class messages"},
        {"name": "Dashboard", "description": "Cached role dashboards"},
        {"name": "Reports", "description": "Asynchronous attendance exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for tokens",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/TokenPair"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "responses": {"200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/TokenPair"}}}
            }
        },
        "/complaints/student": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Raise a complaint as a student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateComplaint"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Complaint"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/complaints/faculty": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Raise a complaint as faculty, routed to admin",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Complaint"}}}
            }
        },
        "/complaints/{id}/faculty-action": {
            "patch": {
                "tags": ["Complaints"],
                "summary": "Resolve, reject, escalate, acknowledge or comment as faculty",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ComplaintAction"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Complaint"}},
                    "403": {"description": "Forbidden transition", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "409": {"description": "Concurrent update", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/complaints/{id}/admin-action": {
            "patch": {
                "tags": ["Complaints"],
                "summary": "Resolve, reject or comment as admin",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated", "schema": {"$ref": "#/definitions/Complaint"}}}
            }
        },
        "/events": {
            "post": {
                "tags": ["Events"],
                "summary": "Request an event",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Event"}}}
            }
        },
        "/events/{id}/status": {
            "patch": {
                "tags": ["Events"],
                "summary": "Approve, reject or forward an event",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated", "schema": {"$ref": "#/definitions/Event"}}}
            }
        },
        "/skill-courses": {
            "get": {
                "tags": ["Skill Courses"],
                "summary": "List visible courses",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Courses"}}
            },
            "post": {
                "tags": ["Skill Courses"],
                "summary": "Create a draft course",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/skill-courses/{courseId}/enroll": {
            "post": {
                "tags": ["Skill Courses"],
                "summary": "Enroll in a published course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "courseId", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Enrolled"}}
            }
        },
        "/skill-courses/{courseId}/quiz": {
            "post": {
                "tags": ["Skill Courses"],
                "summary": "Submit round 2 quiz answers",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "courseId", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Scored"}}
            }
        },
        "/attendance/mark-subject": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for a class subject session",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Marked"}}
            }
        },
        "/attendance/students/{studentId}/summary": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance summary per subject",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "studentId", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Summary"}}
            }
        },
        "/leaves": {
            "post": {
                "tags": ["Leaves"],
                "summary": "Apply for leave",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/leaves/{id}/status": {
            "patch": {
                "tags": ["Leaves"],
                "summary": "Approve or reject a pending leave",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated"}}
            }
        },
        "/communication/send": {
            "post": {
                "tags": ["Communication"],
                "summary": "Send a direct or class message",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Sent"}}
            }
        },
        "/communication/inbox": {
            "get": {
                "tags": ["Communication"],
                "summary": "Messages addressed to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Messages"}}
            }
        },
        "/dashboard/{role}": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Role dashboard, cached per user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "role", "required": true, "type": "string", "enum": ["student", "faculty", "admin"]}],
                "responses": {"200": {"description": "Dashboard; X-Cache reports HIT or MISS"}}
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue an attendance export",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Queued"},
                    "503": {"description": "Reports disabled", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export via signed token",
                "parameters": [{"in": "path", "name": "token", "required": true, "type": "string"}],
                "produces": ["text/csv", "application/pdf"],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "TokenPair": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "refreshToken": {"type": "string"},
                "expiresIn": {"type": "integer"}
            }
        },
        "CreateComplaint": {
            "type": "object",
            "required": ["title", "description"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"}
            }
        },
        "ComplaintAction": {
            "type": "object",
            "required": ["actionType"],
            "properties": {
                "actionType": {"type": "string", "enum": ["resolve", "reject", "escalate", "ack-admin-resolution", "comment"]},
                "comment": {"type": "string"}
            }
        },
        "Complaint": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["pending_faculty", "pending_admin", "resolved", "rejected"]},
                "currentOwner": {"type": "string"},
                "version": {"type": "integer"}
            }
        },
        "Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string"},
                "version": {"type": "integer"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "code": {"type": "string"},
                "detail": {"type": "object"}
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
