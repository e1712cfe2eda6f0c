// Package tracing wraps OpenTelemetry so the kernel can record a span per
// process lifetime and per traced system call without importing the SDK.
package tracing
