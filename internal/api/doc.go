// Package api provides the local HTTP REST API and WebSocket server for the
// smart home dashboard.
//
// It exposes the dashboard controller and the session service to a browser
// UI. All routes live under /api/v1:
//
//	GET  /health                    liveness
//	GET  /metrics                   JSON runtime and dashboard metrics
//	GET  /metrics/prometheus        Prometheus exposition
//	GET  /system/status             online indicator and storage mode
//	POST /auth/register             create an account
//	POST /auth/login                log in and initialise the dashboard
//	POST /auth/logout               clear the current user
//	GET  /auth/me                   current account
//
// The remaining routes require a logged-in user when login is required:
//
//	GET  /dashboard                 full view (filter, devices, counts, stats)
//	GET  /devices                   catalogue, optionally ?category=
//	GET  /devices/counts            per-filter counts
//	GET  /devices/{id}              one device
//	POST /devices/{id}/toggle       flip status
//	PUT  /devices/{id}/value        set the slider value
//	POST /devices/all               turn everything on or off
//	POST /devices/auto              randomise statuses
//	PUT  /filter                    change the view filter
//	GET  /stats                     active count, average temperature, energy
//	POST /snapshot/save             persist now
//	POST /snapshot/load             re-apply the stored snapshot
//	GET  /ws                        WebSocket event stream
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
