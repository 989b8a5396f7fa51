// Package docs registers the OpenAPI document served under /swagger.
// Schemas mirror the request and response types of internal/api/handler.
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
		"/api/dashboard-stats": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"stats"
				],
				"summary": "Dashboard figures for a period",
				"parameters": [
					{
						"type": "string",
						"enum": [
							"current_week",
							"last_week",
							"last_two",
							"last_month",
							"last_quarter"
						],
						"description": "Reporting window (default current_week)",
						"name": "period",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/ports.DashboardStats"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/auth/login": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Login",
				"parameters": [
					{
						"description": "Login credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.loginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.authResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/auth/register": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Register a new user",
				"parameters": [
					{
						"description": "User registration details",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.registerRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/handler.authResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"health"
				],
				"summary": "Liveness probe",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/health/ready": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"health"
				],
				"summary": "Readiness probe",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.readinessResponse"
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"$ref": "#/definitions/handler.readinessResponse"
						}
					}
				}
			}
		},
		"/v1/affiliations": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"affiliations"
				],
				"summary": "List affiliations visible to the caller",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/domain.CustomerAffiliation"
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"affiliations"
				],
				"summary": "Create an affiliation",
				"parameters": [
					{
						"description": "Affiliation",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.createAffiliationRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/domain.CustomerAffiliation"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/affiliations/{id}": {
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"affiliations"
				],
				"summary": "Delete an affiliation",
				"parameters": [
					{
						"type": "integer",
						"description": "Affiliation ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			},
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"affiliations"
				],
				"summary": "Update affiliation avatar and link",
				"parameters": [
					{
						"type": "integer",
						"description": "Affiliation ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Avatar and link",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.updateAffiliationRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.CustomerAffiliation"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "List customers visible to the caller",
				"parameters": [
					{
						"type": "string",
						"description": "Substring filter",
						"name": "search",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number (default 1)",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (default 10, max 100)",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.customerListResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "Create a customer",
				"parameters": [
					{
						"description": "Customer details",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.createCustomerRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/domain.Customer"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers/{id}": {
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"customers"
				],
				"summary": "Delete a customer and its transaction details",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			},
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "Get a customer",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Customer"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers/{id}/affiliation": {
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "Assign or clear the customer affiliation",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Affiliation name; empty clears it",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.customerAffiliationRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Customer"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers/{id}/details": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"details"
				],
				"summary": "List a customer's transaction details with totals",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.detailSummaryResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"details"
				],
				"summary": "Record transaction detail lines",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Detail lines",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.createDetailsRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/domain.TransactionDetail"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers/{id}/notes": {
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "Replace the customer notes",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Notes",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.notesRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Customer"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers/{id}/permission": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "Check whether the caller may modify a customer",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.permissionResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers/{id}/status": {
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "Update the customer status",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "New status",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.customerStatusRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Customer"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/customers/{id}/transaction-status": {
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"customers"
				],
				"summary": "Update the deal status",
				"parameters": [
					{
						"type": "integer",
						"description": "Customer ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "New deal status",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.transactionStatusRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Customer"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/dashboard-stats": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"stats"
				],
				"summary": "Dashboard figures for a period",
				"parameters": [
					{
						"type": "string",
						"enum": [
							"current_week",
							"last_week",
							"last_two",
							"last_month",
							"last_quarter"
						],
						"description": "Reporting window (default current_week)",
						"name": "period",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/ports.DashboardStats"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/details/{id}": {
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"details"
				],
				"summary": "Delete a transaction detail line",
				"parameters": [
					{
						"type": "integer",
						"description": "Detail ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/me/password": {
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Change own password",
				"parameters": [
					{
						"description": "Current and new password",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.changePasswordRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.messageResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/stats/affiliations": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"stats"
				],
				"summary": "Customer breakdown per affiliation",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/ports.AffiliationStats"
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/stats/users": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"stats"
				],
				"summary": "Per-user performance",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/ports.UserStats"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/users": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "List users",
				"parameters": [
					{
						"type": "string",
						"description": "Substring on username or email",
						"name": "search",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.userListResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Create a user with any role",
				"parameters": [
					{
						"description": "User",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.createUserRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/domain.User"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"422": {
						"description": "Unprocessable Entity",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/users/{id}": {
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"users"
				],
				"summary": "Delete a user",
				"parameters": [
					{
						"type": "integer",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/v1/users/{id}/password": {
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Reset a user's password",
				"parameters": [
					{
						"type": "integer",
						"description": "User ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "New password",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.resetPasswordRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.messageResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"domain.Customer": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"customer_name": {
					"type": "string"
				},
				"phone_number": {
					"type": "string"
				},
				"affiliation": {
					"type": "string"
				},
				"customer_status": {
					"type": "string"
				},
				"transaction_status": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				},
				"submit_user": {
					"type": "string"
				},
				"submit_time": {
					"type": "string",
					"format": "date-time"
				},
				"updated_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"domain.CustomerAffiliation": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"name": {
					"type": "string"
				},
				"avatar": {
					"type": "string"
				},
				"link": {
					"type": "string"
				},
				"submit_user": {
					"type": "string"
				}
			}
		},
		"domain.TransactionDetail": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"customer_id": {
					"type": "integer"
				},
				"product_name": {
					"type": "string"
				},
				"quantity": {
					"type": "integer"
				},
				"unit_price": {
					"type": "number"
				},
				"total_amount": {
					"type": "number"
				},
				"transaction_time": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"domain.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				},
				"last_login": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"handler.authResponse": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/domain.User"
				}
			}
		},
		"handler.changePasswordRequest": {
			"type": "object",
			"required": [
				"current_password",
				"new_password"
			],
			"properties": {
				"current_password": {
					"type": "string"
				},
				"new_password": {
					"type": "string",
					"minLength": 6
				}
			}
		},
		"handler.createAffiliationRequest": {
			"type": "object",
			"required": [
				"name"
			],
			"properties": {
				"name": {
					"type": "string",
					"maxLength": 100
				},
				"avatar": {
					"type": "string"
				},
				"link": {
					"type": "string"
				}
			}
		},
		"handler.createCustomerRequest": {
			"type": "object",
			"required": [
				"customer_name",
				"phone_number"
			],
			"properties": {
				"customer_name": {
					"type": "string",
					"maxLength": 100
				},
				"phone_number": {
					"type": "string",
					"maxLength": 32
				},
				"affiliation": {
					"type": "string",
					"maxLength": 100
				},
				"customer_status": {
					"type": "string",
					"enum": [
						"新客户",
						"进群",
						"已退群",
						"已圈上",
						"被拉黑",
						"封号失联",
						"重复",
						"返回"
					]
				},
				"transaction_status": {
					"type": "string",
					"enum": [
						"已成交",
						"未成交",
						"待跟进"
					]
				},
				"notes": {
					"type": "string",
					"maxLength": 2000
				}
			}
		},
		"handler.createDetailsRequest": {
			"type": "object",
			"required": [
				"details"
			],
			"properties": {
				"details": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handler.detailLineRequest"
					},
					"minItems": 1
				}
			}
		},
		"handler.createUserRequest": {
			"type": "object",
			"required": [
				"username",
				"email",
				"password",
				"role"
			],
			"properties": {
				"username": {
					"type": "string",
					"minLength": 2,
					"maxLength": 32
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string",
					"minLength": 6
				},
				"role": {
					"type": "string",
					"enum": [
						"admin",
						"manager",
						"staff",
						"guest"
					]
				}
			}
		},
		"handler.customerAffiliationRequest": {
			"type": "object",
			"properties": {
				"affiliation": {
					"type": "string",
					"maxLength": 100
				}
			}
		},
		"handler.customerListResponse": {
			"type": "object",
			"properties": {
				"customers": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.Customer"
					}
				},
				"totalCount": {
					"type": "integer"
				},
				"totalPages": {
					"type": "integer"
				},
				"currentPage": {
					"type": "integer"
				}
			}
		},
		"handler.customerStatusRequest": {
			"type": "object",
			"required": [
				"customer_status"
			],
			"properties": {
				"customer_status": {
					"type": "string",
					"enum": [
						"新客户",
						"进群",
						"已退群",
						"已圈上",
						"被拉黑",
						"封号失联",
						"重复",
						"返回"
					]
				}
			}
		},
		"handler.dependencyStatus": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"error": {
					"type": "string"
				}
			}
		},
		"handler.detailLineRequest": {
			"type": "object",
			"required": [
				"product_name",
				"quantity"
			],
			"properties": {
				"product_name": {
					"type": "string",
					"maxLength": 100
				},
				"quantity": {
					"type": "integer",
					"minimum": 1
				},
				"unit_price": {
					"type": "number",
					"minimum": 0.0
				},
				"total_amount": {
					"type": "number",
					"minimum": 0.0
				},
				"transaction_time": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"handler.detailSummaryResponse": {
			"type": "object",
			"properties": {
				"details": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.TransactionDetail"
					}
				},
				"totalQuantity": {
					"type": "integer"
				},
				"totalUnitPrice": {
					"type": "number"
				},
				"totalAmount": {
					"type": "number"
				},
				"products": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"hasDetails": {
					"type": "boolean"
				}
			}
		},
		"handler.errorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"handler.loginRequest": {
			"type": "object",
			"required": [
				"login",
				"password"
			],
			"properties": {
				"login": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"handler.messageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"handler.notesRequest": {
			"type": "object",
			"properties": {
				"notes": {
					"type": "string",
					"maxLength": 2000
				}
			}
		},
		"handler.permissionResponse": {
			"type": "object",
			"properties": {
				"hasPermission": {
					"type": "boolean"
				}
			}
		},
		"handler.readinessResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"dependencies": {
					"type": "object",
					"additionalProperties": {
						"$ref": "#/definitions/handler.dependencyStatus"
					}
				}
			}
		},
		"handler.registerRequest": {
			"type": "object",
			"required": [
				"username",
				"email",
				"password"
			],
			"properties": {
				"username": {
					"type": "string",
					"minLength": 2,
					"maxLength": 32
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string",
					"minLength": 6
				}
			}
		},
		"handler.resetPasswordRequest": {
			"type": "object",
			"required": [
				"password"
			],
			"properties": {
				"password": {
					"type": "string",
					"minLength": 6
				}
			}
		},
		"handler.transactionStatusRequest": {
			"type": "object",
			"required": [
				"transaction_status"
			],
			"properties": {
				"transaction_status": {
					"type": "string",
					"enum": [
						"已成交",
						"未成交",
						"待跟进"
					]
				}
			}
		},
		"handler.updateAffiliationRequest": {
			"type": "object",
			"properties": {
				"avatar": {
					"type": "string"
				},
				"link": {
					"type": "string"
				}
			}
		},
		"handler.userListResponse": {
			"type": "object",
			"properties": {
				"users": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.User"
					}
				},
				"total": {
					"type": "integer"
				},
				"page": {
					"type": "integer"
				},
				"limit": {
					"type": "integer"
				},
				"totalPages": {
					"type": "integer"
				}
			}
		},
		"ports.AffiliationStats": {
			"type": "object",
			"properties": {
				"affiliation": {
					"type": "string"
				},
				"avatar": {
					"type": "string"
				},
				"link": {
					"type": "string"
				},
				"submitUser": {
					"type": "string"
				},
				"customerCount": {
					"type": "integer"
				},
				"customerStatus": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/ports.BucketCount"
					}
				},
				"transactionStatus": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/ports.BucketCount"
					}
				},
				"totalAmount": {
					"type": "number"
				}
			}
		},
		"ports.BucketCount": {
			"type": "object",
			"properties": {
				"label": {
					"type": "string"
				},
				"count": {
					"type": "integer"
				},
				"percentage": {
					"type": "number"
				}
			}
		},
		"ports.DashboardStats": {
			"type": "object",
			"properties": {
				"transactionAmount": {
					"$ref": "#/definitions/ports.Metric"
				},
				"transactionCount": {
					"$ref": "#/definitions/ports.Metric"
				},
				"avgOrderValue": {
					"$ref": "#/definitions/ports.Metric"
				},
				"customerCount": {
					"$ref": "#/definitions/ports.Metric"
				},
				"periodInfo": {
					"$ref": "#/definitions/ports.PeriodInfo"
				}
			}
		},
		"ports.Metric": {
			"type": "object",
			"properties": {
				"value": {
					"type": "number"
				},
				"change": {
					"type": "string"
				}
			}
		},
		"ports.PeriodInfo": {
			"type": "object",
			"properties": {
				"startDate": {
					"type": "string",
					"format": "date-time"
				},
				"endDate": {
					"type": "string",
					"format": "date-time"
				},
				"period": {
					"type": "string"
				}
			}
		},
		"ports.UserStats": {
			"type": "object",
			"properties": {
				"userId": {
					"type": "integer"
				},
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"lastLogin": {
					"type": "string",
					"format": "date-time"
				},
				"avgCustomerValue": {
					"type": "number"
				},
				"conversionRate": {
					"type": "number"
				},
				"last7Days": {
					"$ref": "#/definitions/ports.WindowStats"
				},
				"last30Days": {
					"$ref": "#/definitions/ports.WindowStats"
				},
				"customerCount": {
					"type": "integer"
				},
				"customerStatus": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/ports.BucketCount"
					}
				},
				"transactionStatus": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/ports.BucketCount"
					}
				},
				"totalAmount": {
					"type": "number"
				}
			}
		},
		"ports.WindowStats": {
			"type": "object",
			"properties": {
				"newCustomers": {
					"type": "integer"
				},
				"revenue": {
					"type": "number"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the JWT.",
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
	Title:            "CRM API",
	Description:      "Customer, transaction and affiliation management with role-scoped access.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
