// Package middleware provides HTTP middleware for the DjVu metadata API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request counters and latency histograms labelled by route
package middleware
