// Package http implements the HTTP handlers of the trendlens API. Handlers
// stay thin: they bind path and query values into the v1 contract structs,
// validate them, call the dashboard service and render the result.
//
// # Routes
//
//	POST   /api/datasets                          multipart upload, field "file"
//	GET    /api/datasets/{id}                     dataset summary
//	DELETE /api/datasets/{id}
//	GET    /api/datasets/{id}/trend?topic=
//	GET    /api/datasets/{id}/correlation
//	GET    /api/datasets/{id}/clusters?k=
//	GET    /api/datasets/{id}/forecast?topic=
//	GET    /api/datasets/{id}/overview?topic=&k=
//	GET    /api/datasets/{id}/charts/{kind}.png?topic=
//	GET    /api/datasets/{id}/report?format=xlsx|csv&topic=&k=
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//
// # Errors
//
// Every failure is rendered as RFC 7807 problem details by the shared
// ErrorHandler. A rejected upload answers 422 with the Month message, an
// unknown dataset 404, an unknown topic or out-of-range k 400, and a view
// that cannot be computed for its input 422 with the view name in details.
//
// NaN values in view payloads are encoded as JSON null.
package http
