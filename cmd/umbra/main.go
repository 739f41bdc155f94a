// Umbra is a traffic shadowing proxy.
//
// It accepts each HTTP request exactly once, forwards it to the configured
// origin synchronously (callers always get the origin's real response), and
// independently delivers a clone of the request to a shadow target from a
// bounded queue drained by a worker pool. Shadow failures are recorded, never
// surfaced to callers.
//
// Usage:
//
//	# Start the proxy with default configuration
//	umbra run
//
//	# Start with a custom configuration file
//	umbra run --config /etc/umbra/config.yaml
//
//	# Override the shadow target for this process
//	umbra run --shadow-target http://staging.internal:9090
//
//	# Check a configuration file without starting anything
//	umbra validate --config config.yaml
//
//	# Drive synthetic traffic through a running proxy
//	umbra bench --target http://localhost:8080 --rate 50
//
//	# Show version information
//	umbra version
package main

func main() {
	Execute()
}
