package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Portal API",
        "description": "Timetable, attendance, leave and announcement services for the campus portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedule", "description": "Weekly timetable and uploads"},
        {"name": "Attendance", "description": "Attendance counters and reports"},
        {"name": "Leave", "description": "Leave request workflow"},
        {"name": "Announcements", "description": "Campus announcement feed"},
        {"name": "Dashboard", "description": "Role dashboards"},
        {"name": "Teachers", "description": "Faculty roster"},
        {"name": "Exports", "description": "Asynchronous report generation"}
    ],
    "paths": {
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get the weekly timetable",
                "parameters": [
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer"},
                    {"name": "day", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Upload a timetable file",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ScheduleUploadResult"}}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Remove the entire timetable",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/classes/{teacherId}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get a teacher's classes for today",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leave-requests": {
            "get": {
                "tags": ["Leave"],
                "summary": "List leave requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Leave"],
                "summary": "Submit a leave request",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "from_date", "in": "formData", "required": true, "type": "string"},
                    {"name": "to_date", "in": "formData", "required": true, "type": "string"},
                    {"name": "reason", "in": "formData", "required": true, "type": "string"},
                    {"name": "teacher_name", "in": "formData", "type": "string"},
                    {"name": "document", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leave-requests/{id}/approve": {
            "put": {
                "tags": ["Leave"],
                "summary": "Approve a pending leave request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/leave-requests/{id}/reject": {
            "put": {
                "tags": ["Leave"],
                "summary": "Reject a pending leave request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/announcements": {
            "get": {
                "tags": ["Announcements"],
                "summary": "List announcements newest-first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Announcements"],
                "summary": "Publish an announcement",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PostAnnouncementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/announcements/{id}": {
            "delete": {
                "tags": ["Announcements"],
                "summary": "Delete an announcement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Announcement not found", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/students/{id}/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Get a student's attendance report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Record attendance counters",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/start-attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Trigger camera-based attendance capture",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Capture service unavailable", "schema": {"$ref": "#/definitions/APIError"}},
                    "504": {"description": "Capture timed out", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/dashboard/admin": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Get the admin dashboard",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/student": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Get the student dashboard",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a report export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestExportBody"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}/link": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get a signed download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export via a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "ScheduleUploadResult": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["rows", "extracted_text"]},
                "rows_processed": {"type": "integer"},
                "extracted_text": {"type": "string"}
            }
        },
        "PostAnnouncementRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"}
            },
            "required": ["title", "content"]
        },
        "RecordAttendanceRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "subject": {"type": "string"},
                "attended": {"type": "integer"},
                "total": {"type": "integer"}
            },
            "required": ["student_id", "subject"]
        },
        "RequestExportBody": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["ATTENDANCE_CSV", "LEAVE_REGISTER_PDF"]}
            },
            "required": ["type"]
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
