// Package docs registers the OpenAPI document served at /swagger/index.html.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
        "/api/v1/announcements/{id}": {
            "get": {
                "tags": [
                    "Announcements"
                ],
                "summary": "Get one announcement",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Announcement ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "patch": {
                "tags": [
                    "Announcements"
                ],
                "summary": "Edit an announcement (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Announcement ID"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Fields to change",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "tags": [
                    "Announcements"
                ],
                "summary": "Delete an announcement (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Announcement ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/dashboard": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Dashboard counts for the caller",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events": {
            "post": {
                "tags": [
                    "Events"
                ],
                "summary": "Create an event",
                "description": "The caller becomes the host; an invite code is generated.",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Event",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/hosted": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Events hosted by the caller",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/participating": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Events the caller is an approved member of",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}": {
            "get": {
                "tags": [
                    "Events"
                ],
                "summary": "Event detail (host or approved member)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "patch": {
                "tags": [
                    "Events"
                ],
                "summary": "Update an event (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Fields to change",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "tags": [
                    "Events"
                ],
                "summary": "Delete an event with its members and announcements (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/announcements": {
            "get": {
                "tags": [
                    "Announcements"
                ],
                "summary": "List announcements, pinned first",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "post": {
                "tags": [
                    "Announcements"
                ],
                "summary": "Post an announcement (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Announcement",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/audit": {
            "get": {
                "tags": [
                    "AuditLog"
                ],
                "summary": "Event audit trail",
                "description": "Audit rows recorded for an event (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "action",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Filter by action"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Filter by status"
                    },
                    {
                        "name": "from_date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Filter from date (YYYY-MM-DD)"
                    },
                    {
                        "name": "to_date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Filter to date (YYYY-MM-DD)"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Page number (default: 1)"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Records per page (default: 20)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/audit/export": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Export the event audit trail (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "csv (default), xlsx or pdf"
                    },
                    {
                        "name": "date_range",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "all, daily, weekly, monthly, yearly or custom"
                    },
                    {
                        "name": "start_date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD for custom"
                    },
                    {
                        "name": "end_date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD for custom"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/octet-stream"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/close": {
            "put": {
                "tags": [
                    "Events"
                ],
                "summary": "Close or reopen an event (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": false,
                        "description": "Defaults to closing",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/members": {
            "post": {
                "tags": [
                    "Members"
                ],
                "summary": "Request to join an event",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": false,
                        "description": "Optional memo for the host",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "get": {
                "tags": [
                    "Members"
                ],
                "summary": "List members (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "pending, approved, rejected or withdrawn"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/members/export": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Export the member roster (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "csv (default), xlsx or pdf"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Membership status filter"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/octet-stream"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/members/me": {
            "get": {
                "tags": [
                    "Members"
                ],
                "summary": "My membership in an event",
                "description": "member is null when the caller has no row.",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/members/me/withdraw": {
            "post": {
                "tags": [
                    "Members"
                ],
                "summary": "Leave an event",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/events/{id}/members/{userId}": {
            "patch": {
                "tags": [
                    "Members"
                ],
                "summary": "Approve, reject or withdraw a member (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "userId",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Member user ID"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "New status",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "tags": [
                    "Members"
                ],
                "summary": "Remove a member (host only)",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Event ID"
                    },
                    {
                        "name": "userId",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Member user ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/invites/{code}": {
            "get": {
                "tags": [
                    "Invites"
                ],
                "summary": "Public event preview by invite code",
                "parameters": [
                    {
                        "name": "code",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Invite code"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/invites/{code}/join": {
            "post": {
                "tags": [
                    "Members"
                ],
                "summary": "Join an event through its invite link",
                "description": "Joins as approved. Returns 200 with the existing row when already a member.",
                "parameters": [
                    {
                        "name": "code",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Invite code"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/notifications": {
            "get": {
                "tags": [
                    "Notifications"
                ],
                "summary": "List my in-app notifications",
                "parameters": [
                    {
                        "name": "unread",
                        "in": "query",
                        "type": "boolean",
                        "required": false,
                        "description": "Only unread"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": "Max items (default 20)"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/notifications/devices": {
            "post": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Register an FCM device token",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Device",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "delete": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Remove an FCM device token",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Device",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/notifications/ws": {
            "get": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Live notification feed over websocket",
                "parameters": [
                    {
                        "name": "access_token",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Bearer token for browsers that cannot set headers"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/notifications/{id}/read": {
            "put": {
                "tags": [
                    "Notifications"
                ],
                "summary": "Mark a notification as read",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": "Notification ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/profiles/me": {
            "get": {
                "tags": [
                    "Profiles"
                ],
                "summary": "Current user's profile",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            },
            "put": {
                "tags": [
                    "Profiles"
                ],
                "summary": "Update current user's profile",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Fields to change",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/profiles/{id}": {
            "get": {
                "tags": [
                    "Profiles"
                ],
                "summary": "Public profile",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": "Profile ID"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Supabase access token as \"Bearer <token>\"",
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
	Title:            "Gather API",
	Description:      "Invite-link based one-off events: hosting, joining, member approval and announcements.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
