// Package app wires the scoring HTTP server: configuration, logging,
// OpenTelemetry, services, router and graceful shutdown.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML and environment
//	2. Initialize logging and observability
//	3. Build the scoring and health services
//	4. Set up middleware and routes
//	5. Configure the HTTP server
//
// # Routes
//
//	POST /api/score          multipart upload, JSON or CSV response
//	GET  /api/health         liveness summary with runtime stats
//	GET  /api/health/ready   readiness, 503 when a dependency fails
//	GET  /api/health/live    liveness check
//	GET  /api/version        build information
//	GET  /metrics            Prometheus exposition
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests
// within the configured shutdown timeout. Initialization errors are
// returned to the caller; the package never calls os.Exit.
package app
