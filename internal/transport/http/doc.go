// Package http implements the HTTP handlers of the qpcrscore web service.
// Handlers stay thin: they parse the request, call a service and render the
// response. Scoring itself lives in internal/services.
//
// # Routes
//
//	POST /api/score          multipart upload (field "file"), JSON or CSV
//	GET  /api/health         liveness summary
//	GET  /api/health/ready   readiness of registered dependencies
//	GET  /api/health/live    runtime details
//	GET  /api/version        build information
//	GET  /metrics            Prometheus exposition
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details and are produced by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/input/shape",
//	    "title": "Invalid Input Table",
//	    "status": 422,
//	    "detail": "cycle is not an integer",
//	    "row": 43
//	}
//
// # Testing
//
// Handlers are tested with httptest against a mocked service interface.
package http
