// Package app wires trendlens together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from environment, .env and an optional YAML file
//  2. Initialize logging and OpenTelemetry (Prometheus metrics, optional stdout traces)
//  3. Create the in-memory dataset store
//  4. Initialize the dashboard and health services
//  5. Set up the chi router, middleware and handlers
//  6. Start the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, stops
// the store sweeper and flushes telemetry. The package never calls os.Exit.
package app
