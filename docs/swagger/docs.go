// Package swagger registers the OpenAPI document served under /swagger.
package swagger

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
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/netbox/snapshot": {
            "get": {
                "description": "Loads the snapshot if needed and returns its state and table sizes.",
                "produces": ["application/json"],
                "tags": ["netbox"],
                "summary": "Snapshot Stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/netbox.SnapshotStats"}},
                    "503": {"description": "Snapshot incomplete", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/netbox/run": {
            "post": {
                "description": "Reconciles all stored observation batches. Optionally uploads the run report.",
                "produces": ["application/json"],
                "tags": ["netbox"],
                "summary": "Run From Storage",
                "parameters": [
                    {"type": "boolean", "description": "Upload the run report", "name": "report", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/reconcile.Report"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/netbox/{netboxid}": {
            "get": {
                "description": "Returns the last known record for a netbox from the snapshot.",
                "produces": ["application/json"],
                "tags": ["netbox"],
                "summary": "Get Cached Netbox",
                "parameters": [
                    {"type": "integer", "description": "Netbox ID", "name": "netboxid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Record"}},
                    "400": {"description": "Invalid netbox id", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Applies an observed device record to the netbox. Observations with \"committed\": false are skipped.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["netbox"],
                "summary": "Reconcile Netbox",
                "parameters": [
                    {"type": "integer", "description": "Netbox ID", "name": "netboxid", "in": "path", "required": true},
                    {"description": "Observation", "name": "observation", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Observation"}}
                ],
                "responses": {
                    "200": {"description": "Updated or unchanged", "schema": {"$ref": "#/definitions/reconcile.Result"}},
                    "202": {"description": "Skipped", "schema": {"$ref": "#/definitions/reconcile.Result"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Unknown netbox", "schema": {"$ref": "#/definitions/reconcile.Result"}},
                    "500": {"description": "Rolled back", "schema": {"$ref": "#/definitions/reconcile.Result"}}
                }
            }
        }
    },
    "definitions": {
        "models.Record": {
            "type": "object",
            "properties": {
                "serial": {"type": "string"},
                "hw_ver": {"type": "string"},
                "sw_ver": {"type": "string"},
                "type_id": {"type": "string"},
                "sysname": {"type": "string"},
                "device_id": {"type": "integer"}
            }
        },
        "models.Observation": {
            "type": "object",
            "properties": {
                "netbox_id": {"type": "integer"},
                "serial": {"type": "string"},
                "hw_ver": {"type": "string"},
                "sw_ver": {"type": "string"},
                "type_id": {"type": "string"},
                "sysname": {"type": "string"},
                "device_id": {"type": "integer"},
                "committed": {"type": "boolean"}
            }
        },
        "netbox.SnapshotStats": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["empty", "loaded", "incomplete"]},
                "devices": {"type": "integer"},
                "netboxes": {"type": "integer"},
                "loaded_at": {"type": "string"}
            }
        },
        "reconcile.Result": {
            "type": "object",
            "properties": {
                "netbox_id": {"type": "integer"},
                "outcome": {"type": "string", "enum": ["updated", "unchanged", "rolled_back", "skipped", "failed"]},
                "device_id": {"type": "integer"},
                "dry_run": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "reconcile.Summary": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "updated": {"type": "integer"},
                "unchanged": {"type": "integer"},
                "rolled_back": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        },
        "reconcile.Report": {
            "type": "object",
            "properties": {
                "started_at": {"type": "string"},
                "duration_ns": {"type": "integer"},
                "dry_run": {"type": "boolean"},
                "summary": {"$ref": "#/definitions/reconcile.Summary"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/reconcile.Result"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Netbox Sync API",
	Description:      "Reconciles netbox records with collected device data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
